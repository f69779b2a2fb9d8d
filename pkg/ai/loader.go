package ai

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// 树定义 JSON 格式：
//
//	{
//	  "name": "flanker",
//	  "root": {"type": "selector", "children": [ ... ]}
//	}
//
// 节点类型是封闭集合，加载前先过 schema 校验。
const treeSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "root"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "root": {"$ref": "#/$defs/node"}
  },
  "$defs": {
    "node": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {"enum": [
          "selector", "sequence", "inverter", "condition",
          "find_target", "find_ally", "move_to_target", "move_to_ally",
          "attack", "patrol", "dodge"
        ]},
        "key": {"type": "string", "minLength": 1},
        "child": {"$ref": "#/$defs/node"},
        "children": {"type": "array", "minItems": 1, "items": {"$ref": "#/$defs/node"}},
        "duration": {"type": "number", "minimum": 0},
        "distance": {"type": "number", "minimum": 0}
      }
    }
  }
}`

var compiledTreeSchema = jsonschema.MustCompileString("tree.schema.json", treeSchema)

// TreeDef 树定义文件的顶层结构
type TreeDef struct {
	Name string  `json:"name"`
	Root NodeDef `json:"root"`
}

// NodeDef 单个节点定义
type NodeDef struct {
	Type     string    `json:"type"`
	Key      string    `json:"key,omitempty"`
	Child    *NodeDef  `json:"child,omitempty"`
	Children []NodeDef `json:"children,omitempty"`
	Duration float64   `json:"duration,omitempty"`
	Distance float64   `json:"distance,omitempty"`
}

// ParseTreeDef 解析并校验一份树定义
func ParseTreeDef(data []byte) (*TreeDef, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("树定义不是合法 JSON: %w", err)
	}
	if err := compiledTreeSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("树定义不符合 schema: %w", err)
	}

	var def TreeDef
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, err
	}
	return &def, nil
}

// BuildNode 由节点定义构造原型节点
func BuildNode(def NodeDef) (Node, error) {
	switch def.Type {
	case "selector", "sequence":
		if len(def.Children) == 0 {
			return nil, fmt.Errorf("%s 节点缺少子节点", def.Type)
		}
		children := make([]Node, 0, len(def.Children))
		for _, c := range def.Children {
			node, err := BuildNode(c)
			if err != nil {
				return nil, err
			}
			children = append(children, node)
		}
		if def.Type == "selector" {
			return &Selector{Children: children}, nil
		}
		return &Sequence{Children: children}, nil

	case "inverter":
		if def.Child == nil {
			return nil, fmt.Errorf("inverter 节点缺少 child")
		}
		child, err := BuildNode(*def.Child)
		if err != nil {
			return nil, err
		}
		return &Inverter{Child: child}, nil

	case "condition":
		if def.Key == "" {
			return nil, fmt.Errorf("condition 节点缺少 key")
		}
		return &KeyCondition{Key: def.Key}, nil

	case "find_target":
		return &FindTarget{}, nil
	case "find_ally":
		return &FindAlly{}, nil
	case "move_to_target":
		return &MoveToTarget{}, nil
	case "move_to_ally":
		return &MoveToAlly{}, nil
	case "attack":
		return &Attack{}, nil
	case "patrol":
		return &Patrol{}, nil
	case "dodge":
		return &Dodge{Duration: def.Duration, Distance: def.Distance}, nil

	default:
		return nil, fmt.Errorf("未知节点类型: %s", def.Type)
	}
}

// LoadTreeFile 加载单个树定义文件并注册为模板
func LoadTreeFile(m *Manager, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	def, err := ParseTreeDef(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	root, err := BuildNode(def.Root)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	m.RegisterTemplate(def.Name, root)
	return nil
}

// LoadTreeDir 加载目录下所有 *.json 树定义，返回成功注册的数量。
// 目录不存在视为没有外部模板，不算错误。
func LoadTreeDir(m *Manager, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		if err := LoadTreeFile(m, filepath.Join(dir, e.Name())); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
