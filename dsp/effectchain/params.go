package effectchain

import (
	"fmt"
	"math"
)

// Params holds plugin parameters: numeric values and string values keyed
// by name.
type Params struct {
	Num map[string]float64 `json:"num,omitempty"`
	Str map[string]string  `json:"str,omitempty"`
}

// GetNum extracts a numeric parameter, returning def if missing or invalid.
func (p Params) GetNum(key string, def float64) float64 {
	if p.Num == nil {
		return def
	}

	v, ok := p.Num[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}

	return v
}

// GetStr extracts a string parameter, returning def if missing.
func (p Params) GetStr(key, def string) string {
	if v, ok := p.Str[key]; ok {
		return v
	}
	return def
}

// Clone returns a deep copy so snapshots never share maps.
func (p Params) Clone() Params {
	out := Params{}
	if p.Num != nil {
		out.Num = make(map[string]float64, len(p.Num))
		for k, v := range p.Num {
			out.Num[k] = v
		}
	}
	if p.Str != nil {
		out.Str = make(map[string]string, len(p.Str))
		for k, v := range p.Str {
			out.Str[k] = v
		}
	}
	return out
}

// Merge returns defaults overlaid with p.
func (p Params) Merge(defaults Params) Params {
	out := defaults.Clone()
	for k, v := range p.Num {
		if out.Num == nil {
			out.Num = map[string]float64{}
		}
		out.Num[k] = v
	}
	for k, v := range p.Str {
		if out.Str == nil {
			out.Str = map[string]string{}
		}
		out.Str[k] = v
	}
	return out
}

// toParams converts the settings shapes a plugin descriptor may carry.
// Flat JSON objects decode into map[string]any: numbers and booleans land
// in Num, strings in Str.
func toParams(settings any) (Params, error) {
	switch s := settings.(type) {
	case nil:
		return Params{}, nil
	case Params:
		return s.Clone(), nil
	case *Params:
		if s == nil {
			return Params{}, nil
		}
		return s.Clone(), nil
	case map[string]float64:
		return Params{Num: s}.Clone(), nil
	case map[string]any:
		p := Params{Num: map[string]float64{}, Str: map[string]string{}}
		for k, v := range s {
			if nested, ok := v.(map[string]any); ok && (k == "num" || k == "str") {
				inner, err := toParams(nested)
				if err != nil {
					return Params{}, err
				}
				p = inner.Merge(p)
				continue
			}

			switch tv := v.(type) {
			case float64:
				p.Num[k] = tv
			case int:
				p.Num[k] = float64(tv)
			case bool:
				p.Num[k] = 0
				if tv {
					p.Num[k] = 1
				}
			case string:
				p.Str[k] = tv
			default:
				return Params{}, fmt.Errorf("%w: parameter %q has type %T", ErrInvalidSettings, k, v)
			}
		}
		return p, nil
	default:
		return Params{}, fmt.Errorf("%w: plugin settings of type %T", ErrInvalidSettings, settings)
	}
}
