package book

import "fmt"

// Candidate is provisional metadata from an external source, not yet reconciled
// against a record. Values hold strings, numbers or nil.
type Candidate struct {
	Values   map[Field]any
	CoverURL string
}

// Set stores v for f, ignoring nil and empty strings.
func (c *Candidate) Set(f Field, v any) {
	if isBlank(v) {
		return
	}
	if c.Values == nil {
		c.Values = make(map[Field]any)
	}
	c.Values[f] = v
}

// Get returns the value for f, nil when absent.
func (c Candidate) Get(f Field) any {
	if c.Values == nil {
		return nil
	}
	return c.Values[f]
}

// String returns the value for f formatted as text, "" when absent.
func (c Candidate) String(f Field) string {
	v := c.Get(f)
	if isBlank(v) {
		return ""
	}
	return fmt.Sprint(v)
}

// IsEmpty reports whether the candidate has neither values nor a cover.
func (c Candidate) IsEmpty() bool {
	if c.CoverURL != "" {
		return false
	}
	for _, v := range c.Values {
		if !isBlank(v) {
			return false
		}
	}
	return true
}

func isBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	}
	return false
}
