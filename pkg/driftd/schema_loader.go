package driftd

import (
	"encoding/json"
	"os"

	"github.com/driftkit/drift/pkg/dirty"
	"github.com/pkg/errors"
)

// schemaFileEntry is one relationship declaration in the schema file. The file
// maps entity type names to their relationship descriptors:
//
//	{
//	  "thing": [
//	    {"name": "children", "to_many": true, "dependent": true},
//	    {"name": "owner"}
//	  ],
//	  "child": []
//	}
type schemaFileEntry struct {
	Name      string `json:"name"`
	ToMany    bool   `json:"to_many"`
	Dependent bool   `json:"dependent"`
}

// LoadSchemaFile reads the relationship schema driftd tracks against.
func LoadSchemaFile(path string) (*dirty.Schema, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed reading schema file %s", path)
	}

	return ParseSchema(contents)
}

func ParseSchema(contents []byte) (*dirty.Schema, error) {
	var entries map[string][]schemaFileEntry
	if err := json.Unmarshal(contents, &entries); err != nil {
		return nil, errors.Wrap(err, "Failed parsing schema")
	}

	schema := dirty.NewSchema()
	for entityType, relationships := range entries {
		descriptors := make([]dirty.Descriptor, 0, len(relationships))
		for _, entry := range relationships {
			if entry.Name == "" {
				return nil, errors.Errorf("Schema for type %s has a relationship with no name", entityType)
			}
			descriptors = append(descriptors, dirty.Descriptor{
				Name:      entry.Name,
				ToMany:    entry.ToMany,
				Dependent: entry.Dependent,
			})
		}
		schema.RegisterType(entityType, descriptors...)
	}

	return schema, nil
}
