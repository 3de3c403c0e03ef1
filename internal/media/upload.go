package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
)

// browsers post this name for a file input that was cleared by script
const placeholderName = "undefined"

var ErrFileTooLarge = errors.New("file too large")

// Upload is one submitted file.
type Upload struct {
	Filename string
	Data     []byte
}

// IsEmpty reports whether the upload is an unfilled file input.
func (u Upload) IsEmpty() bool {
	name := strings.TrimSpace(u.Filename)
	return len(u.Data) == 0 || name == "" || name == placeholderName
}

// ReadUploads reads the file parts of a multipart form field, skipping empty
// inputs. Each file is limited to maxBytes.
func ReadUploads(headers []*multipart.FileHeader, maxBytes int64) ([]Upload, error) {
	uploads := make([]Upload, 0, len(headers))
	for _, fh := range headers {
		if fh == nil || fh.Size == 0 {
			continue
		}
		if maxBytes > 0 && fh.Size > maxBytes {
			return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrFileTooLarge, fh.Filename, maxBytes)
		}

		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("could not open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("could not read %s: %w", fh.Filename, err)
		}

		u := Upload{Filename: fh.Filename, Data: data}
		if u.IsEmpty() {
			continue
		}
		uploads = append(uploads, u)
	}
	return uploads, nil
}
