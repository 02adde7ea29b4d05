package viewport

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	"viewercore/pkg/services"
)

// SaveFrame saves a rendered frame as a JPEG image
func SaveFrame(img image.Image, filename string) error {
	if img == nil {
		return fmt.Errorf("no frame to save")
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveStack renders every image of a stack viewport and saves them as a
// numbered JPEG sequence. The displayed image index is restored afterwards.
func SaveStack(vp services.StackViewport, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	original := vp.ImageIndex()
	defer func() {
		vp.SetImageIndex(original)
		vp.Render()
	}()

	var files []string
	for pos := 0; pos < vp.NumImages(); pos++ {
		vp.SetImageIndex(pos)
		vp.Render()

		filename := filepath.Join(outputDir, fmt.Sprintf("%s_%03d.jpg", vp.ID(), pos))
		if err := SaveFrame(vp.Frame(), filename); err != nil {
			return files, err
		}
		files = append(files, filename)
	}

	return files, nil
}
