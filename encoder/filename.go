package encoder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

type OutputMethod int

const (
	OutputMethodOverwrite OutputMethod = iota
	OutputMethodNewFile

	OutputMethod_Size
)

func (method OutputMethod) String() string {
	switch method {
	case OutputMethodNewFile:
		return "new-file"
	case OutputMethodOverwrite:
		return "overwrite"
	}
	return "invalid-output-method"
}

func ParseOutputMethod(s string) (OutputMethod, error) {
	switch strings.ReplaceAll(strings.ToLower(s), " ", "-") {
	case "", "overwrite":
		return OutputMethodOverwrite, nil
	case "new-file", "new":
		return OutputMethodNewFile, nil
	}
	return 0, fmt.Errorf("unknown output method %q", s)
}

// ResolveOutputPath returns where the next capture is written. With
// OutputMethodNewFile an existing file is never overwritten: the next free
// numbered name is used instead.
func ResolveOutputPath(filename string, method OutputMethod) (string, error) {
	if method != OutputMethodNewFile {
		return filename, nil
	}
	_, err := os.Stat(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return filename, nil
		}
		return "", err
	}

	next, _, err := NextLatestIncrementedFilename(filename)
	return next, err
}

func TrimExt(filename string) (baseFilename, ext string) {
	ext = filepath.Ext(filename)
	baseFilename = strings.TrimSuffix(filename, ext)
	return
}

// WithFormatExt replaces the extension of filename with the one of format.
func WithFormatExt(filename string, format Format) string {
	base, _ := TrimExt(filename)
	return base + "." + format.String()
}

func ReplaceIncrementedFilename(filename string, counter int) string {
	baseFilename, _, ext := parseIncrementFilename(filename)
	return fmt.Sprintf("%v-%v%v", baseFilename, counter, ext)
}

func NextLatestIncrementedFilename(filename string) (string, int, error) {
	baseFilename, _, ext := parseIncrementFilename(filename)
	files, err := filepath.Glob(baseFilename + "*")
	if err != nil {
		return "", 0, err
	}

	maxNum := 0
	for _, file := range files {
		_, num, ext2 := parseIncrementFilename(file)
		if num > maxNum && ext == ext2 {
			maxNum = num
		}
	}

	maxNum++

	return fmt.Sprintf("%v-%v%v", baseFilename, maxNum, ext), maxNum, nil
}

func parseIncrementFilename(filename string) (base string, num int, ext string) {
	fileExt := filepath.Ext(filename)
	filename = strings.TrimSuffix(filename, fileExt)

	if filename == "" && fileExt != "" {
		filename, fileExt = fileExt, ""
	}

	i := len(filename) - 1
	if i < 0 {
		return "", 0, ""
	}

	for ; i >= 0; i-- {
		ch := rune(filename[i])
		if !unicode.IsDigit(ch) {
			break
		}
	}

	currentNum := 0

	digits := filename[i+1:]
	filename = filename[0 : i+1]

	if filename != "" && filename[len(filename)-1] == '-' {
		filename = filename[0 : len(filename)-1]
	}

	if n, err := strconv.Atoi(digits); err == nil {
		currentNum = n
	}

	return filename, currentNum, fileExt
}

func IncrementFilename(filename string) string {
	filename, num, ext := parseIncrementFilename(filename)
	if filename == "" && ext == "" {
		return ""
	}
	num++
	return fmt.Sprintf("%v-%v%v", filename, num, ext)
}
