package fetcher

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/spec-kit/project-docs/internal/domain"
)

// Origin is a decoded origin configuration. The set of implementations is
// closed: SQLOrigin and APIOrigin.
type Origin interface {
	Kind() domain.OriginKind
	origin()
}

// SQLOrigin reads rows from a view or statement in a relational database.
type SQLOrigin struct {
	ConnectionString string         `json:"connectionString"`
	ViewName         string         `json:"viewName"`
	Parameters       map[string]any `json:"parameters,omitempty"`
}

func (SQLOrigin) Kind() domain.OriginKind { return domain.OriginSQLSource }
func (SQLOrigin) origin()                 {}

// APIOrigin calls an external HTTP endpoint returning JSON.
type APIOrigin struct {
	URL            string            `json:"url"`
	Method         string            `json:"method,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	Body           json.RawMessage   `json:"body,omitempty"`
	TimeoutSeconds int               `json:"timeoutSeconds,omitempty"`
}

func (APIOrigin) Kind() domain.OriginKind { return domain.OriginExternalAPI }
func (APIOrigin) origin()                 {}

// HTTPMethod returns the upper-cased method, GET when unset.
func (o APIOrigin) HTTPMethod() string {
	if m := strings.TrimSpace(o.Method); m != "" {
		return strings.ToUpper(m)
	}
	return "GET"
}

// ParseOrigin decodes config according to kind. Configuration is only ever
// interpreted here, at fetch or validation time.
func ParseOrigin(kind domain.OriginKind, config string) (Origin, error) {
	if strings.TrimSpace(config) == "" {
		return nil, newError(kind, KindInvalidConfig, nil, "origin configuration is empty")
	}
	dec := json.NewDecoder(strings.NewReader(config))
	dec.UseNumber()

	switch kind {
	case domain.OriginSQLSource:
		var o SQLOrigin
		if err := dec.Decode(&o); err != nil {
			return nil, newError(kind, KindInvalidConfig, err, "malformed sql origin configuration")
		}
		o.Parameters = normalizeParams(o.Parameters)
		return o, nil
	case domain.OriginExternalAPI:
		var o APIOrigin
		if err := dec.Decode(&o); err != nil {
			return nil, newError(kind, KindInvalidConfig, err, "malformed api origin configuration")
		}
		if bytes.Equal(bytes.TrimSpace(o.Body), []byte("null")) {
			o.Body = nil
		}
		return o, nil
	default:
		return nil, newError(kind, KindInvalidConfig, nil, "unsupported origin kind %d", int(kind))
	}
}

// normalizeParams turns decoded JSON values into driver-friendly arguments.
func normalizeParams(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case json.Number:
			if i, err := val.Int64(); err == nil {
				out[k] = i
			} else if f, err := val.Float64(); err == nil {
				out[k] = f
			} else {
				out[k] = val.String()
			}
		case map[string]any, []any:
			raw, err := json.Marshal(val)
			if err != nil {
				out[k] = nil
				continue
			}
			out[k] = string(raw)
		default:
			out[k] = val
		}
	}
	return out
}
