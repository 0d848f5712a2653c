package config

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// hclFile mirrors File for gohcl. Attributes stay a cty value so that any
// HCL object literal is accepted.
type hclFile struct {
	Class      string    `hcl:"class,optional"`
	Attributes cty.Value `hcl:"attributes,optional"`
	Plugins    []string  `hcl:"plugins,optional"`
}

// decodeHCLFile parses and decodes a single HCL options file
func decodeHCLFile(path string) (*File, error) {
	parser := hclparse.NewParser()
	parsed, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %s", path, diags.Error())
	}

	var raw hclFile
	diags = gohcl.DecodeBody(parsed.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %s", path, diags.Error())
	}

	file := &File{Class: raw.Class, Plugins: raw.Plugins}
	if raw.Attributes.IsNull() || !raw.Attributes.IsKnown() {
		return file, nil
	}

	ty := raw.Attributes.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("HCL file %s: attributes must be an object, got %s", path, ty.FriendlyName())
	}

	converted, err := ctyValueToInterface(raw.Attributes)
	if err != nil {
		return nil, fmt.Errorf("HCL file %s: %w", path, err)
	}
	file.Attributes = converted.(map[string]any)
	return file, nil
}

// ctyValueToInterface converts a cty.Value to plain Go values. Whole numbers
// become int so that HCL and YAML files produce the same options.
func ctyValueToInterface(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	if ty.IsPrimitiveType() {
		switch ty {
		case cty.String:
			return val.AsString(), nil
		case cty.Number:
			bf := val.AsBigFloat()
			if bf.IsInt() {
				if n, accuracy := bf.Int64(); accuracy == big.Exact {
					return int(n), nil
				}
			}
			f, _ := bf.Float64()
			return f, nil
		case cty.Bool:
			return val.True(), nil
		default:
			return nil, fmt.Errorf("unsupported primitive type: %s", ty.FriendlyName())
		}
	}
	if ty.IsObjectType() || ty.IsMapType() {
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			converted, err := ctyValueToInterface(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = converted
		}
		return out, nil
	}
	if ty.IsTupleType() || ty.IsListType() || ty.IsSetType() {
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			converted, err := ctyValueToInterface(v)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported cty.Type for conversion: %s", ty.FriendlyName())
}
