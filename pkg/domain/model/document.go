package model

// Document is the unit returned by a similarity index. It is built per query and never stored as is.
type Document struct {
	ID        string
	Content   string
	Metadata  map[string]string
	Embedding []float32
	Score     float64
}

// Copy returns a deep copy of the document
func (d *Document) Copy() *Document {
	c := &Document{
		ID:      d.ID,
		Content: d.Content,
		Score:   d.Score,
	}
	if d.Metadata != nil {
		c.Metadata = make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			c.Metadata[k] = v
		}
	}
	if d.Embedding != nil {
		c.Embedding = make([]float32, len(d.Embedding))
		copy(c.Embedding, d.Embedding)
	}
	return c
}
