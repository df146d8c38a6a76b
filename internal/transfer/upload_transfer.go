package transfer

import "io"

// UploadFile is one file taken from a multipart request.
type UploadFile struct {
	Name     string
	Size     int64
	MimeType string
	Content  io.Reader
}

type UploadResult struct {
	FileName string `json:"fileName"`
	FileURL  string `json:"fileUrl"`
	FileSize int64  `json:"fileSize"`
	MimeType string `json:"mimetype"`
}
