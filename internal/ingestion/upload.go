package ingestion

import (
	"path/filepath"
	"strings"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/models"
)

type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f UploadFile) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(f.ContentType), "image/")
}

// FileType decides by extension; the content type only matters when the
// name has no extension at all.
func (f UploadFile) FileType() models.FileType {
	ext := strings.ToLower(filepath.Ext(f.Name))
	if ext == ".pdf" {
		return models.FileTypePDF
	}
	if ext == "" && strings.EqualFold(f.ContentType, "application/pdf") {
		return models.FileTypePDF
	}
	return models.FileTypeImage
}

type Upload struct {
	Files []UploadFile
	// Title is accepted for compatibility but always replaced by a generated one.
	Title   string
	DocType models.DocType
}

// IsBatch reports whether the files form a multi-page scan.
func (u Upload) IsBatch() bool {
	if len(u.Files) < 2 {
		return false
	}
	for _, f := range u.Files {
		if !f.IsImage() {
			return false
		}
	}
	return true
}

// EncodedUpload is the JSON form of a single-document upload.
type EncodedUpload struct {
	Title       string          `json:"title"`
	DocType     models.DocType  `json:"doc_type"`
	FileType    models.FileType `json:"file_type"`
	ImageBase64 string          `json:"image_base64"`
}
