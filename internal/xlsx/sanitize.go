package xlsx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
)

// Some export tools stamp dataValidations elements with sheet-protection
// attributes (algorithmName, hashValue, saltValue, spinCount) that are not
// part of the worksheet schema and make strict parsers reject the file.
// Sanitize rewrites the workbook archive with those attributes removed.
var validationAttrs = []*regexp.Regexp{
	regexp.MustCompile(`(<dataValidations[^>]*?)\s+algorithmName="[^"]*"`),
	regexp.MustCompile(`(<dataValidations[^>]*?)\s+hashValue="[^"]*"`),
	regexp.MustCompile(`(<dataValidations[^>]*?)\s+saltValue="[^"]*"`),
	regexp.MustCompile(`(<dataValidations[^>]*?)\s+spinCount="[^"]*"`),
}

// Sanitize writes a cleaned temp copy of the workbook and returns its
// path along with a cleanup that removes it. The original file is never
// modified.
func Sanitize(path string) (string, func(), error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", nil, fmt.Errorf("open workbook archive: %w", err)
	}
	defer zr.Close()

	tmp, err := os.CreateTemp(os.TempDir(), "xlsxdiff-*.xlsx")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	zw := zip.NewWriter(tmp)
	for _, item := range zr.File {
		content, err := readZipEntry(item)
		if err != nil {
			zw.Close()
			tmp.Close()
			cleanup()
			return "", nil, fmt.Errorf("read %s: %w", item.Name, err)
		}

		if isWorksheetXML(item.Name) && bytes.Contains(content, []byte("dataValidations")) {
			for _, re := range validationAttrs {
				content = re.ReplaceAll(content, []byte("$1"))
			}
		}

		w, err := zw.Create(item.Name)
		if err == nil {
			_, err = w.Write(content)
		}
		if err != nil {
			zw.Close()
			tmp.Close()
			cleanup()
			return "", nil, fmt.Errorf("write %s: %w", item.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return tmp.Name(), cleanup, nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func isWorksheetXML(name string) bool {
	return len(name) > 4 && name[len(name)-4:] == ".xml"
}
