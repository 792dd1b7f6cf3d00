package normalize

// LookupOption is one selectable entry from the backend's lookup endpoint
// (categories, languages and the like).
type LookupOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// LookupOptions extracts category options from a lookup payload. The list
// may be named "category" or "categories", at the top level or under "data".
func LookupOptions(payload []byte) []LookupOption {
	doc, ok := record(payload)
	if !ok {
		return nil
	}

	data := object(doc, "data")
	list := data.Get("category")
	if !list.IsArray() {
		list = data.Get("categories")
	}
	if !list.IsArray() {
		return nil
	}

	var options []LookupOption
	for _, item := range list.Array() {
		if !item.IsObject() {
			continue
		}
		label := firstText(item, "label", "name")
		value := firstID(item, "value", "id")
		if value == "" {
			value = label
		}
		if label == "" || value == "" {
			continue
		}
		options = append(options, LookupOption{Label: label, Value: value})
	}
	return options
}

// UploadedURL resolves the public URL of an uploaded file.
func UploadedURL(payload []byte) string {
	doc, ok := record(payload)
	if !ok {
		return ""
	}
	if direct := text(doc.Get("url")); direct != "" {
		return direct
	}
	if data := doc.Get("data"); data.IsObject() {
		return text(data.Get("url"))
	}
	return ""
}
