package command

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/goliatone/go-errors"
)

// DecodeData reads a JSON array of objects, or newline-delimited JSON objects.
// Numbers are kept as json.Number so integers survive unchanged.
func DecodeData(r io.Reader) ([]any, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryExternal, "read data failed").
			WithTextCode("DATA_READ")
	}
	content = bytes.TrimSpace(content)
	if len(content) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	if content[0] == '[' {
		var items []any
		if err := dec.Decode(&items); err != nil {
			return nil, errors.Wrap(err, errors.CategoryValidation, "data is not a valid JSON array").
				WithTextCode("DATA_INVALID")
		}
		return items, nil
	}

	items := []any{}
	for {
		var item any
		if err := dec.Decode(&item); err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrap(err, errors.CategoryValidation, "data is not valid JSON lines").
				WithTextCode("DATA_INVALID")
		}
		items = append(items, item)
	}
	return items, nil
}

// LoadData reads a JSON data file. "-" reads stdin.
func LoadData(path string) ([]any, error) {
	if path == "-" {
		return DecodeData(os.Stdin)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryExternal, "open data file failed").
			WithTextCode("DATA_READ")
	}
	defer file.Close()
	return DecodeData(file)
}
