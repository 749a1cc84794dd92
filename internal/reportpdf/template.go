package reportpdf

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var ErrPageCount = errors.New("reportpdf: page count mismatch")

func init() {
	api.DisableConfigDir()
}

func pdfConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// CountPages parses doc and returns its page count.
func CountPages(doc []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(doc), pdfConfig())
	if err != nil {
		return 0, fmt.Errorf("read pdf: %w", err)
	}
	return n, nil
}

// RequirePages fails unless doc has exactly want pages.
func RequirePages(doc []byte, want int) error {
	n, err := CountPages(doc)
	if err != nil {
		return err
	}
	if n != want {
		return fmt.Errorf("%w: want=%d got=%d", ErrPageCount, want, n)
	}
	return nil
}
