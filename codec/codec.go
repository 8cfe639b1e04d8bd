// Package codec writes imported timelines in the formats the CLI and HTTP
// surfaces offer.
package codec

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	CBOR Format = "cbor"
)

var encMode cbor.EncMode

func init() {
	var err error
	// deterministic: the same timeline always encodes to the same bytes
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case JSON, YAML, CBOR:
		return f, nil
	}
	return "", errors.Errorf("unknown format %q (want json, yaml or cbor)", s)
}

func (f Format) ContentType() string {
	switch f {
	case YAML:
		return "application/yaml"
	case CBOR:
		return "application/cbor"
	}
	return "application/json"
}

func Encode(w io.Writer, f Format, v any) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(v), "encoding json")
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(err, "encoding yaml")
		}
		return errors.Wrap(enc.Close(), "encoding yaml")
	case CBOR:
		return errors.Wrap(encMode.NewEncoder(w).Encode(v), "encoding cbor")
	}
	return errors.Errorf("unknown format %q", f)
}

// DecodeCBOR is the inverse of Encode for CBOR.
func DecodeCBOR(data []byte, v any) error {
	return errors.Wrap(cbor.Unmarshal(data, v), "decoding cbor")
}
