package models

// PersonName is a DICOM PN value; only the alphabetic group is used.
type PersonName struct {
	Alphabetic string `yaml:"alphabetic"`
}

// Instance is the subset of per-image DICOM instance metadata the viewer reads.
type Instance struct {
	PatientID         string     `yaml:"patientId"`
	PatientName       PersonName `yaml:"patientName"`
	StudyInstanceUID  string     `yaml:"studyInstanceUid"`
	SeriesInstanceUID string     `yaml:"seriesInstanceUid"`
	StudyDate         string     `yaml:"studyDate"`
	Modality          string     `yaml:"modality"`
}
