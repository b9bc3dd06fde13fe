package services

import (
	"errors"
	"fmt"
	"io"

	clamd "github.com/dutchcoders/go-clamd"
)

// ScanVerdict is the outcome of an antivirus scan.
type ScanVerdict struct {
	Clean     bool
	Signature string
}

// Scanner inspects file content before structural validation.
type Scanner interface {
	Scan(r io.Reader) (ScanVerdict, error)
}

// ClamAVScanner streams content to a clamd daemon.
type ClamAVScanner struct {
	client *clamd.Clamd
}

// NewClamAVScanner targets a clamd address such as tcp://localhost:3310.
func NewClamAVScanner(address string) *ClamAVScanner {
	return &ClamAVScanner{client: clamd.NewClamd(address)}
}

func (s *ClamAVScanner) Ping() error {
	return s.client.Ping()
}

// Scan streams r to clamd. The verdict is only trusted when every byte was
// read from r and clamd answered; anything else is an error.
func (s *ClamAVScanner) Scan(r io.Reader) (ScanVerdict, error) {
	abort := make(chan bool)
	defer close(abort)

	src := &trackingReader{r: r}
	response, err := s.client.ScanStream(src, abort)
	if err != nil {
		return ScanVerdict{}, fmt.Errorf("clamav scan: %w", err)
	}

	verdict := ScanVerdict{Clean: true}
	var scanErr error
	answered := false
	for res := range response {
		answered = true
		switch res.Status {
		case clamd.RES_FOUND:
			verdict.Clean = false
			verdict.Signature = res.Description
		case clamd.RES_ERROR, clamd.RES_PARSE_ERROR:
			scanErr = fmt.Errorf("clamav scan: %s", res.Description)
		}
	}

	if !verdict.Clean {
		return verdict, nil
	}
	if src.err != nil {
		return ScanVerdict{}, fmt.Errorf("clamav scan: reading input: %w", src.err)
	}
	if scanErr != nil {
		return ScanVerdict{}, scanErr
	}
	if !answered {
		return ScanVerdict{}, errors.New("clamav scan: no response from clamd")
	}
	return verdict, nil
}

// trackingReader remembers the first read error other than io.EOF.
// clamd.ScanStream treats any read error as end of input.
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && t.err == nil {
		t.err = err
	}
	return n, err
}
