package stega

import (
	"go.uber.org/zap"
)

// Origin is written into every payload.
const Origin = "sanity.io"

// Config controls EncodeSourceMap.
type Config struct {
	Enabled   bool
	StudioURL StudioURL
	// Filter defaults to AllowAll.
	Filter Filter
	Logger *zap.Logger
}

type transcoder struct {
	csm     *ContentSourceMap
	cfg     Config
	encoded int
	skipped int
}

// EncodeSourceMap returns a copy of data in which every mapped string leaf
// accepted by the filter carries an invisible edit locator. data is not
// modified. Leaves that cannot be resolved are left untouched.
func EncodeSourceMap(data any, csm *ContentSourceMap, cfg Config) any {
	if !cfg.Enabled || csm == nil || data == nil {
		return data
	}
	if cfg.Filter == nil {
		cfg.Filter = AllowAll
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	t := &transcoder{csm: csm, cfg: cfg}
	out := t.walk(data, nil)
	cfg.Logger.Debug("stega: encoded result",
		zap.Int("encoded", t.encoded),
		zap.Int("skipped", t.skipped),
		zap.Int("documents", len(csm.Documents)),
	)
	return out
}

func (t *transcoder) walk(v any, path Path) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = t.walk(child, append(path, Field(k)))
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = t.walk(child, append(path, Index(i)))
		}
		return out
	case string:
		return t.encode(val, path)
	default:
		return v
	}
}

func (t *transcoder) encode(value string, resultPath Path) string {
	if value == "" || IsEncoded(value) {
		return value
	}
	doc, sourcePath, ok := t.csm.source(resultPath)
	if !ok {
		t.skipped++
		return value
	}
	props := FilterProps{
		SourcePath:     sourcePath,
		SourceDocument: doc,
		ResultPath:     resultPath.clone(),
		Value:          value,
		FilterDefault:  FilterDefault,
	}
	if !t.cfg.Filter(props) {
		t.skipped++
		return value
	}
	out, err := Combine(value, Payload{
		Origin: Origin,
		Href:   EditURL(t.cfg.StudioURL, doc, sourcePath),
	})
	if err != nil {
		t.cfg.Logger.Warn("stega: encode failed", zap.String("path", resultPath.JSONPath()), zap.Error(err))
		t.skipped++
		return value
	}
	t.encoded++
	return out
}
