package ptree

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
)

// Write tab separated manifest of written trees to writer.
//
// There are three columns: "idx", "count", "file"
func WriteManifest(written []Written, w io.Writer) (err error) {
	data := make([][]string, len(written)+1)
	data[0] = []string{"idx", "count", "file"}
	for i, wr := range written {
		data[i+1] = []string{strconv.Itoa(wr.Idx), strconv.Itoa(wr.Count), wr.File}
	}
	writer := csv.NewWriter(w)
	writer.Comma = '\t'
	defer func() {
		writer.Flush()
		if err == nil {
			err = writer.Error()
		} else if writer.Error() != nil {
			log.Printf("error when flushing manifest, %s", writer.Error())
		}
	}()
	if err = writer.WriteAll(data); err != nil {
		err = fmt.Errorf("%w, %s", ErrWritingFile, err)
		return
	}
	return
}
