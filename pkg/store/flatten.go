package store

// Flatten converts nested maps into dotted-path assignments, so a
// partial update like {metadata: {processed: true}} touches only
// metadata.processed instead of replacing the whole metadata object.
func Flatten(doc Document) Document {
	out := Document{}
	flattenInto(out, "", doc)
	return out
}

func flattenInto(out Document, prefix string, value Document) {
	for key, raw := range value {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := raw.(map[string]any); ok && len(nested) > 0 {
			flattenInto(out, path, nested)
			continue
		}
		out[path] = raw
	}
}
