package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
)

// ErrNoCredentials is returned for an empty credentials document.
var ErrNoCredentials = errors.New("credentials file contains no parameters")

// Credentials are the token request parameters (client_id, client_secret,
// grant_type, username, password, ...). They are sent verbatim.
type Credentials map[string]string

// Values returns the credentials as URL parameters.
func (c Credentials) Values() url.Values {
	values := make(url.Values, len(c))
	for k, v := range c {
		values.Set(k, v)
	}
	return values
}

// LoadCredentials reads a credentials JSON object from path.
func LoadCredentials(path string) (Credentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open credentials file: %w", err)
	}
	defer f.Close()

	creds, err := ReadCredentials(f)
	if err != nil {
		return nil, fmt.Errorf("credentials file %s: %w", path, err)
	}
	return creds, nil
}

// ReadCredentials decodes a flat JSON object of scalar values.
// Numbers and booleans are converted to their literal string form.
func ReadCredentials(r io.Reader) (Credentials, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrNoCredentials
	}

	creds := make(Credentials, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			creds[key] = v
		case json.Number:
			creds[key] = v.String()
		case bool:
			creds[key] = strconv.FormatBool(v)
		case nil:
			// null parameters are omitted
		default:
			return nil, fmt.Errorf("credential %q must be a string, number or boolean", key)
		}
	}

	return creds, nil
}
