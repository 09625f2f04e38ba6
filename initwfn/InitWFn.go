// Package initwfn implements functionality to wrap Gorgonia InitWFn
// so that they can be JSON serialized into configuration files.
package initwfn

import (
	"encoding/json"
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of InitWFn that are available.
// Type is used to implement a basic type system of InitWFn's.
type Type string

// Available InitWFn types
const (
	GlorotU    Type = "GlorotU"
	GlorotN    Type = "GlorotN"
	HeU        Type = "HeU"
	HeN        Type = "HeN"
	Zeroes     Type = "Zeroes"
	Ones       Type = "Ones"
	Constant   Type = "Constant"
	Uniform    Type = "Uniform"
	Gaussian   Type = "Gaussian"
	Orthogonal Type = "Orthogonal"
)

// configTypes maps each Type to its concrete Config type
var configTypes = map[Type]reflect.Type{
	GlorotU:    reflect.TypeOf(GlorotUConfig{}),
	GlorotN:    reflect.TypeOf(GlorotNConfig{}),
	HeU:        reflect.TypeOf(HeUConfig{}),
	HeN:        reflect.TypeOf(HeNConfig{}),
	Zeroes:     reflect.TypeOf(ZeroesConfig{}),
	Ones:       reflect.TypeOf(OnesConfig{}),
	Constant:   reflect.TypeOf(ConstantConfig{}),
	Uniform:    reflect.TypeOf(UniformConfig{}),
	Gaussian:   reflect.TypeOf(GaussianConfig{}),
	Orthogonal: reflect.TypeOf(OrthogonalConfig{}),
}

// InitWFn wraps Gorgonia InitWFn so that they can be JSON marshalled and
// unmarshalled.
type InitWFn struct {
	initWFn G.InitWFn
	Type
	Config
}

// newInitWFn returns a new InitWFn
func newInitWFn(c Config) (*InitWFn, error) {
	init := InitWFn{Type: c.Type(), Config: c}
	init.initWFn = init.Config.Create()

	return &init, nil
}

// InitWFn returns the wrapped Gorgonia InitWFn
func (i *InitWFn) InitWFn() G.InitWFn {
	return i.initWFn
}

// String implements the fmt.Stringer interface
func (i *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %v}", i.Type, i.Config)
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (i *InitWFn) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(data, "Type", "Config")
	if err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}

	i.Type = typeName
	i.Config = config
	i.initWFn = i.Config.Create()

	return nil
}

// unmarshalConfig uses reflection to unmarshall a Config into its
// concrete type. Both the Config and its Type are returned.
func unmarshalConfig(data []byte, typeJsonField,
	valueJsonField string) (Config, Type, error) {
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	var typeName Type
	if err := json.Unmarshal(m[typeJsonField], &typeName); err != nil {
		return nil, "", fmt.Errorf("could not decode type: %v", err)
	}
	ty, found := configTypes[typeName]
	if !found {
		return nil, "", fmt.Errorf("unknown InitWFn type %q", typeName)
	}

	value := reflect.New(ty)
	if raw, ok := m[valueJsonField]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, value.Interface()); err != nil {
			return nil, "", err
		}
	}

	return value.Elem().Interface().(Config), typeName, nil
}

// Config implements a Gorgonia InitWFn configuration and can be used to
// create the described Gorgonia InitWFn's.
type Config interface {
	// Create returns the Gorgonia InitWFn that the Config describes
	Create() G.InitWFn

	// Type returns the type of Gorgonia InitWFn that is returned
	Type() Type
}
