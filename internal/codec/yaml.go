package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"switchgraph/internal/domain"
)

// YAMLCodec handles generic YAML export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlFragment represents the YAML structure for graph data
type yamlFragment struct {
	Devices []yamlDevice `yaml:"devices"`
	Nodes   []yamlNode   `yaml:"nodes"`
	Edges   []yamlEdge   `yaml:"edges"`
}

type yamlDevice struct {
	MgtIP    string `yaml:"mgt_ip"`
	Name     string `yaml:"name,omitempty"`
	Platform string `yaml:"platform,omitempty"`
}

type yamlNode struct {
	ID         string         `yaml:"id"`
	DeviceIP   string         `yaml:"device_ip"`
	Kind       string         `yaml:"kind"`
	Key        string         `yaml:"key"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

type yamlEdge struct {
	ID         string         `yaml:"id"`
	FromID     string         `yaml:"from_id"`
	ToID       string         `yaml:"to_id"`
	Type       string         `yaml:"type"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

// Export exports graph data to YAML
func (c *YAMLCodec) Export(fragment *domain.GraphFragment, w io.Writer) error {
	yf := yamlFragment{
		Devices: make([]yamlDevice, 0, len(fragment.Devices)),
		Nodes:   make([]yamlNode, 0, len(fragment.Nodes)),
		Edges:   make([]yamlEdge, 0, len(fragment.Edges)),
	}

	for _, d := range fragment.Devices {
		yf.Devices = append(yf.Devices, yamlDevice{MgtIP: d.MgtIP, Name: d.Name, Platform: d.Platform})
	}
	for _, node := range fragment.Nodes {
		yf.Nodes = append(yf.Nodes, yamlNode{
			ID:         node.ID,
			DeviceIP:   node.DeviceIP,
			Kind:       string(node.Kind),
			Key:        node.Key,
			Properties: node.Properties,
		})
	}
	for _, edge := range fragment.Edges {
		yf.Edges = append(yf.Edges, yamlEdge{
			ID:         edge.ID,
			FromID:     edge.FromID,
			ToID:       edge.ToID,
			Type:       string(edge.Type),
			Properties: edge.Properties,
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yf); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return nil
}
