package check

//
// Report file
//

import (
	"encoding/json"
	"io/fs"
	"os"

	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
)

// SaveResult appends the JSON serialization of the result, followed
// by a newline character, to the given report file. We lock the file
// while appending, so concurrent invocations sharing a report file
// cannot interleave their lines.
func SaveResult(result *Result, filePath string) error {
	return saveResult(
		result, filePath, json.Marshal, lockedfile.OpenFile,
		func(fp *lockedfile.File, b []byte) (int, error) {
			return fp.Write(b)
		},
	)
}

func saveResult(
	result *Result, filePath string,
	marshal func(v interface{}) ([]byte, error),
	openFile func(name string, flag int, perm fs.FileMode) (*lockedfile.File, error),
	write func(fp *lockedfile.File, b []byte) (n int, err error),
) error {
	data, err := marshal(result)
	if err != nil {
		return errors.Wrap(err, "serializing the result")
	}
	data = append(data, byte('\n'))
	filep, err := openFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return errors.Wrap(err, "opening the report file")
	}
	if _, err := write(filep, data); err != nil {
		filep.Close() // release the file lock
		return errors.Wrap(err, "appending to the report file")
	}
	return filep.Close()
}
