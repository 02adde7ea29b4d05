package commands

import (
	"context"

	"viewercore/pkg/services"
	"viewercore/pkg/session"
)

// DownloadModalTitle is the title of the viewport download modal.
const DownloadModalTitle = "Download High Quality Image"

// DownloadModalContent names the form the download modal shows.
const DownloadModalContent = "ViewportDownloadForm"

// setViewportActive makes the grid position of viewportId active.
func (m *Module) setViewportActive(ctx context.Context, opts Options) (any, error) {
	viewportID, _ := opts.String("viewportId")
	if m.svc.Viewports == nil {
		return nil, nil
	}
	info, ok := m.svc.Viewports.ViewportInfo(viewportID)
	if !ok {
		m.log.Info("no viewport found", "viewportId", viewportID)
		return nil, nil
	}
	m.svc.Viewports.SetActiveIndex(info.Index)
	return nil, nil
}

// toggleCine flips the cine flag, mirrors it on the toolbar and stops
// playback on every grid position. Returns the new flag.
func (m *Module) toggleCine(ctx context.Context, opts Options) (any, error) {
	st := m.svc.Session
	enabled := !st.CineEnabled()
	st.SetCineEnabled(enabled)
	st.SetButtonActive(session.CineButtonID, enabled)

	if m.svc.Viewports != nil {
		for index := 0; index < m.svc.Viewports.GridSize(); index++ {
			cine := st.Cine(index)
			cine.IsPlaying = false
			st.SetCine(index, cine)
		}
	}
	return enabled, nil
}

// arrowTextCallback prompts for annotation text. On confirm the text is
// passed to the "callback" option, if it is a func(string), and returned.
func (m *Module) arrowTextCallback(ctx context.Context, opts Options) (any, error) {
	if m.svc.Dialogs == nil {
		m.log.Info("no dialog service, arrow text prompt skipped")
		return nil, nil
	}

	initial := ""
	if data, ok := opts.Map("data"); ok {
		initial, _ = data.String("text")
	}

	text, ok, err := m.svc.Dialogs.PromptText(ctx, "Enter your annotation", initial)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if callback, ok := opts["callback"].(func(string)); ok {
		callback(text)
	}
	return text, nil
}

// showDownloadViewportModal opens the download modal for the active grid position.
func (m *Module) showDownloadViewportModal(ctx context.Context, opts Options) (any, error) {
	if m.svc.Modals == nil || m.svc.Viewports == nil {
		return nil, nil
	}
	err := m.svc.Modals.Show(services.Modal{
		Title:   DownloadModalTitle,
		Content: DownloadModalContent,
		Props: map[string]any{
			"activeViewportIndex": m.svc.Viewports.ActiveIndex(),
		},
	})
	return nil, err
}
