package validator

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

const utf8BOM = "\ufeff"

// CSV checks that the first line is the customer_id header and that at least
// one more line follows. Rows are not parsed further.
func CSV() Strategy {
	return Func(validateCSV)
}

func validateCSV(r io.Reader) Result {
	br := bufio.NewReader(r)

	header, ok, err := readLine(br)
	if err != nil {
		return Failure("Error while reading CSV file: " + err.Error())
	}
	header = strings.TrimPrefix(header, utf8BOM)
	if !ok || strings.TrimSpace(header) != RequiredHeader {
		return Failure(MsgInvalidHeader)
	}

	_, ok, err = readLine(br)
	if err != nil {
		return Failure("Error while reading CSV file: " + err.Error())
	}
	if !ok {
		return Failure(MsgFileEmpty)
	}

	return Success()
}

// readLine returns the next line without its terminator. ok is false at end
// of input when no characters remain.
func readLine(br *bufio.Reader) (line string, ok bool, err error) {
	line, err = br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, err
	}
	if errors.Is(err, io.EOF) && line == "" {
		return "", false, nil
	}
	return strings.TrimRight(line, "\r\n"), true, nil
}
