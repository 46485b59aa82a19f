package abi

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/domain/models"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

// InitEncoder builds facet initializer calldata from plan arguments.
type InitEncoder struct{}

// NewInitEncoder creates a new initializer encoder
func NewInitEncoder() *InitEncoder {
	return &InitEncoder{}
}

// EncodeInit returns the raw calldata when given, otherwise packs Args
// against the facet's initialize method.
func (e *InitEncoder) EncodeInit(module *models.CompiledModule, init *models.FacetInit) ([]byte, error) {
	if init == nil {
		return nil, nil
	}
	if init.Calldata != "" {
		data, err := hexutil.Decode(init.Calldata)
		if err != nil {
			return nil, fmt.Errorf("invalid init calldata for %s: %w", module.Name, err)
		}
		return data, nil
	}

	method := FindInitializeMethod(module.ABI)
	if method == nil {
		return nil, fmt.Errorf("%s has no %s method", module.Name, domain.InitializerMethod)
	}
	if len(init.Args) != len(method.Inputs) {
		return nil, fmt.Errorf("%s.%s takes %d argument(s), got %d", module.Name, method.Sig, len(method.Inputs), len(init.Args))
	}

	values := make([]any, len(method.Inputs))
	for i, input := range method.Inputs {
		v, err := ParseArg(input.Type, init.Args[i])
		if err != nil {
			name := input.Name
			if name == "" {
				name = fmt.Sprintf("arg%d", i)
			}
			return nil, fmt.Errorf("%s.%s %s: %w", module.Name, method.Sig, name, err)
		}
		values[i] = v
	}
	packed, err := method.Inputs.Pack(values...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", method.Sig, err)
	}
	return append(append([]byte{}, method.ID...), packed...), nil
}

// FindInitializeMethod finds the facet initializer in the ABI
func FindInitializeMethod(contractABI *abi.ABI) *abi.Method {
	if contractABI == nil {
		return nil
	}
	if m, ok := contractABI.Methods[domain.InitializerMethod]; ok {
		return &m
	}
	return nil
}

// ParseArg converts a string to the Go value the ABI packer expects for t.
// Arrays are written as JSON arrays; nested values may be strings or numbers.
func ParseArg(t abi.Type, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("invalid address %q", raw)
		}
		return common.HexToAddress(raw), nil
	case abi.BoolTy:
		return strconv.ParseBool(raw)
	case abi.StringTy:
		return raw, nil
	case abi.UintTy, abi.IntTy:
		return parseInt(t, raw)
	case abi.BytesTy:
		return hexutil.Decode(raw)
	case abi.FixedBytesTy:
		b, err := hexutil.Decode(raw)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("expected %d bytes, got %d", t.Size, len(b))
		}
		out := reflect.New(t.GetType()).Elem()
		reflect.Copy(out, reflect.ValueOf(b))
		return out.Interface(), nil
	case abi.SliceTy, abi.ArrayTy:
		return parseList(t, raw)
	default:
		return nil, fmt.Errorf("unsupported argument type %s", t.String())
	}
}

func parseInt(t abi.Type, raw string) (any, error) {
	v, ok := new(big.Int).SetString(raw, 0)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", raw)
	}
	if t.T == abi.UintTy && v.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s for %s", raw, t.String())
	}
	if v.BitLen() > t.Size {
		return nil, fmt.Errorf("value %s overflows %s", raw, t.String())
	}

	goType := t.GetType()
	if goType == reflect.TypeOf(&big.Int{}) {
		return v, nil
	}
	out := reflect.New(goType).Elem()
	if t.T == abi.UintTy {
		out.SetUint(v.Uint64())
	} else {
		if !v.IsInt64() || out.OverflowInt(v.Int64()) {
			return nil, fmt.Errorf("value %s overflows %s", raw, t.String())
		}
		out.SetInt(v.Int64())
	}
	return out.Interface(), nil
}

func parseList(t abi.Type, raw string) (any, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("expected a JSON array for %s: %w", t.String(), err)
	}
	if t.T == abi.ArrayTy && len(items) != t.Size {
		return nil, fmt.Errorf("%s needs %d elements, got %d", t.String(), t.Size, len(items))
	}

	var out reflect.Value
	if t.T == abi.ArrayTy {
		out = reflect.New(t.GetType()).Elem()
	} else {
		out = reflect.MakeSlice(t.GetType(), len(items), len(items))
	}
	for i, item := range items {
		v, err := ParseArg(*t.Elem, elementString(item))
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(reflect.ValueOf(v))
	}
	return out.Interface(), nil
}

// elementString unquotes JSON strings and keeps numbers and arrays verbatim.
func elementString(item json.RawMessage) string {
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return s
	}
	return string(item)
}

var _ usecase.InitEncoder = (*InitEncoder)(nil)
