package docstore

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/roach88/docql/internal/fieldpath"
	"github.com/roach88/docql/internal/value"
)

// project extracts fields from a JSON body the way a N1QL select list
// does: each result is named after the last identifier of its path, and
// missing fields are omitted.
func project(body string, fields []fieldpath.Path) (value.Object, error) {
	out := value.Object{}
	for _, p := range fields {
		if p.IsMetaID() {
			continue
		}
		segs := p.Segments()
		res := gjson.Get(body, gjsonPath(segs))
		if !res.Exists() {
			continue
		}
		v, err := value.Decode([]byte(res.Raw))
		if err != nil {
			return nil, err
		}
		out = append(out, value.M(resultName(p, segs), v))
	}
	return out, nil
}

func gjsonPath(segs []fieldpath.Segment) string {
	parts := make([]string, len(segs))
	for i, seg := range segs {
		if seg.Kind == fieldpath.Index {
			parts[i] = strconv.Itoa(seg.Index)
			continue
		}
		parts[i] = gjson.Escape(seg.Name)
	}
	return strings.Join(parts, ".")
}

// resultName is the implicit alias N1QL gives a projected path.
func resultName(p fieldpath.Path, segs []fieldpath.Segment) string {
	for i := len(segs) - 1; i >= 0; i-- {
		if segs[i].Kind == fieldpath.Identifier {
			return segs[i].Name
		}
	}
	return p.String()
}
