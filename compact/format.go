package compact

import (
	"fmt"
	"io"
	"strings"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// WriteTo writes the live elements to w, separated by single spaces
func (v *Vector[T, S, C]) WriteTo(w io.Writer) (int64, error) {
	var total int64

	for i, value := range v.All() {
		separator := " "
		if i == 0 {
			separator = ""
		}

		n, err := fmt.Fprint(w, separator, value)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

func (v *Vector[T, S, C]) String() string {
	var builder strings.Builder
	builder.WriteByte('[')
	_, _ = v.WriteTo(&builder)
	builder.WriteByte(']')
	return builder.String()
}

// BlockJsonData populates a json object with information about the vector's block
func (v *Vector[T, S, C]) BlockJsonData(json jwriter.ObjectState) {
	var totalBytes int
	if v.data != nil {
		capacity, _ := sizeToInt(v.header().capacity)
		totalBytes, _ = v.layout().blockBytes(capacity)
	}

	json.Name("Allocated").Bool(v.data != nil)
	json.Name("Size").Int(int(v.Size()))
	json.Name("Capacity").Int(int(v.Capacity()))
	if maxCapacity, ok := sizeToInt(v.MaxCapacity()); ok {
		json.Name("MaxCapacity").Int(maxCapacity)
	} else {
		json.Name("MaxCapacity").Float64(float64(v.MaxCapacity()))
	}
	json.Name("TotalBytes").Int(totalBytes)
}
