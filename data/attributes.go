package data

const (
	// Free-form presence text shown by whois
	AttributeStatus = "status"
	// Topic of a channel
	AttributeTopic = "topic"
	// Display color of a role
	AttributeColor = "color"
)

// GetAttribute safely retrieves the attribute with a default value.
func (e *Entity) GetAttribute(key string, defaultValue string) string {
	if e.Attributes == nil {
		return defaultValue
	}

	if value, exists := e.Attributes[key]; exists {
		return value
	}

	return defaultValue
}

// SetAttribute sets an attribute, initializing the map if needed.
func (e *Entity) SetAttribute(key, value string) {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}

	e.Attributes[key] = value
}

func (e *Entity) DeleteAttribute(key string) {
	if e.Attributes != nil {
		delete(e.Attributes, key)
	}
}

func (e *Entity) HasAttribute(key string) bool {
	if e.Attributes == nil {
		return false
	}

	_, exists := e.Attributes[key]
	return exists
}
