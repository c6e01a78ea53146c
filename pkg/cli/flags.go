// Copyright Amazon.com Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"). You may
// not use this file except in compliance with the License. A copy of the
// License is located at
//
//     http://aws.amazon.com/apache2.0/
//
// or in the "license" file accompanying this file. This file is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
// express or implied. See the License for the specific language governing
// permissions and limitations under the License.

package cli

import (
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/aws/amazon-ec2-instance-interchange/pkg/bytequantity"
)

// StringFlag creates and registers a flag accepting a String and a validator function.
// The validator function is provided so that more complex flags can be created from a string input.
func (cl *CommandLineInterface) StringFlag(name string, shorthand *string, defaultValue *string, description string, validationFn validator) {
	cl.StringFlagOnFlagSet(cl.Command.Flags(), name, shorthand, defaultValue, description, validationFn)
}

// StringOptionsFlag creates and registers a flag accepting a string from a list of valid options
func (cl *CommandLineInterface) StringOptionsFlag(name string, shorthand *string, defaultValue *string, description string, validOpts []string) {
	cl.StringOptionsFlagOnFlagSet(cl.Command.Flags(), name, shorthand, defaultValue, description, validOpts)
}

// IntFlag creates and registers a flag accepting an Integer
func (cl *CommandLineInterface) IntFlag(name string, shorthand *string, defaultValue *int, description string) {
	cl.IntFlagOnFlagSet(cl.Command.Flags(), name, shorthand, defaultValue, description)
}

// BoolFlag creates and registers a flag accepting a boolean
func (cl *CommandLineInterface) BoolFlag(name string, shorthand *string, defaultValue *bool, description string) {
	cl.BoolFlagOnFlagSet(cl.Command.Flags(), name, shorthand, defaultValue, description)
}

// StringSliceFlag creates and registers a flag accepting a list of strings
func (cl *CommandLineInterface) StringSliceFlag(name string, shorthand *string, defaultValue []string, description string) {
	cl.StringSliceFlagOnFlagSet(cl.Command.Flags(), name, shorthand, defaultValue, description)
}

// DurationFlag creates and registers a flag accepting a duration such as 90s or 2m
func (cl *CommandLineInterface) DurationFlag(name string, shorthand *string, defaultValue *time.Duration, description string) {
	cl.DurationFlagOnFlagSet(cl.Command.Flags(), name, shorthand, defaultValue, description)
}

// ByteQuantityFlag creates and registers a flag accepting a byte quantity like 512mb.
// Bare numbers are read as GiB. The parsed value is a *bytequantity.ByteQuantity.
func (cl *CommandLineInterface) ByteQuantityFlag(name string, shorthand *string, defaultValue *bytequantity.ByteQuantity, description string) {
	var defaultStr *string
	if defaultValue != nil {
		defaultStr = cl.StringMe(defaultValue.StringMiB())
	}
	cl.StringFlagOnFlagSet(cl.Command.Flags(), name, shorthand, defaultStr, description, nil)
	cl.processors[name] = func(val interface{}) (interface{}, error) {
		quantity, err := bytequantity.ParseToByteQuantity(*val.(*string))
		if err != nil {
			return nil, invalidInput(name, "%s. A valid example is 16gib", err)
		}
		return &quantity, nil
	}
}

// ConfigStringFlag creates and registers a flag accepting a String for configuration purposes.
// Config flags are inherited by every subcommand and grouped at the bottom in the output of --help
func (cl *CommandLineInterface) ConfigStringFlag(name string, shorthand *string, defaultValue *string, description string, validationFn validator) {
	cl.StringFlagOnFlagSet(cl.Command.PersistentFlags(), name, shorthand, defaultValue, description, validationFn)
}

// ConfigStringOptionsFlag creates and registers a config flag accepting a string from a list of valid options
func (cl *CommandLineInterface) ConfigStringOptionsFlag(name string, shorthand *string, defaultValue *string, description string, validOpts []string) {
	cl.StringOptionsFlagOnFlagSet(cl.Command.PersistentFlags(), name, shorthand, defaultValue, description, validOpts)
}

// ConfigIntFlag creates and registers a flag accepting an Integer for configuration purposes.
func (cl *CommandLineInterface) ConfigIntFlag(name string, shorthand *string, defaultValue *int, description string) {
	cl.IntFlagOnFlagSet(cl.Command.PersistentFlags(), name, shorthand, defaultValue, description)
}

// ConfigBoolFlag creates and registers a flag accepting a boolean for configuration purposes.
func (cl *CommandLineInterface) ConfigBoolFlag(name string, shorthand *string, defaultValue *bool, description string) {
	cl.BoolFlagOnFlagSet(cl.Command.PersistentFlags(), name, shorthand, defaultValue, description)
}

// BoolFlagOnFlagSet creates and registers a flag accepting a boolean for configuration purposes.
func (cl *CommandLineInterface) BoolFlagOnFlagSet(flagSet *pflag.FlagSet, name string, shorthand *string, defaultValue *bool, description string) {
	if defaultValue == nil {
		cl.nilDefaults[name] = true
		defaultValue = cl.BoolMe(false)
	}
	cl.flagSets[name] = flagSet
	if shorthand != nil {
		cl.Flags[name] = flagSet.BoolP(name, string(*shorthand), *defaultValue, description)
		return
	}
	cl.Flags[name] = flagSet.Bool(name, *defaultValue, description)
}

// IntFlagOnFlagSet creates and registers a flag accepting an Integer
func (cl *CommandLineInterface) IntFlagOnFlagSet(flagSet *pflag.FlagSet, name string, shorthand *string, defaultValue *int, description string) {
	if defaultValue == nil {
		cl.nilDefaults[name] = true
		defaultValue = cl.IntMe(0)
	}
	cl.flagSets[name] = flagSet
	cl.validators[name] = func(val interface{}) error {
		if val == nil {
			return nil
		}
		if *val.(*int) < 0 {
			return invalidInput(name, "must not be negative")
		}
		return nil
	}
	if shorthand != nil {
		cl.Flags[name] = flagSet.IntP(name, string(*shorthand), *defaultValue, description)
		return
	}
	cl.Flags[name] = flagSet.Int(name, *defaultValue, description)
}

// StringFlagOnFlagSet creates and registers a flag accepting a String and a validator function.
// The validator function is provided so that more complex flags can be created from a string input.
func (cl *CommandLineInterface) StringFlagOnFlagSet(flagSet *pflag.FlagSet, name string, shorthand *string, defaultValue *string, description string, validationFn validator) {
	if defaultValue == nil {
		cl.nilDefaults[name] = true
		defaultValue = cl.StringMe("")
	}
	cl.flagSets[name] = flagSet
	cl.validators[name] = validationFn
	if shorthand != nil {
		cl.Flags[name] = flagSet.StringP(name, string(*shorthand), *defaultValue, description)
		return
	}
	cl.Flags[name] = flagSet.String(name, *defaultValue, description)
}

// StringOptionsFlagOnFlagSet creates and registers a flag accepting a string from a list of valid options.
// Matching is case-insensitive and the parsed value is normalized to the option's spelling.
func (cl *CommandLineInterface) StringOptionsFlagOnFlagSet(flagSet *pflag.FlagSet, name string, shorthand *string, defaultValue *string, description string, validOpts []string) {
	if len(validOpts) > 0 {
		description = description + ". One of: " + strings.Join(validOpts, ", ")
	}
	cl.StringFlagOnFlagSet(flagSet, name, shorthand, defaultValue, description, func(val interface{}) error {
		if val == nil || len(validOpts) == 0 {
			return nil
		}
		str := *val.(*string)
		for _, opt := range validOpts {
			if str == opt {
				return nil
			}
		}
		return invalidInput(name, "%q is not one of %s", str, strings.Join(validOpts, ", "))
	})
	cl.processors[name] = func(val interface{}) (interface{}, error) {
		str := *val.(*string)
		for _, opt := range validOpts {
			if strings.EqualFold(str, opt) {
				return cl.StringMe(opt), nil
			}
		}
		return val, nil
	}
}

// StringSliceFlagOnFlagSet creates and registers a flag accepting a list of strings.
// Values can be comma separated or the flag can be repeated.
func (cl *CommandLineInterface) StringSliceFlagOnFlagSet(flagSet *pflag.FlagSet, name string, shorthand *string, defaultValue []string, description string) {
	if defaultValue == nil {
		cl.nilDefaults[name] = true
	}
	cl.flagSets[name] = flagSet
	if shorthand != nil {
		cl.Flags[name] = flagSet.StringSliceP(name, string(*shorthand), defaultValue, description)
		return
	}
	cl.Flags[name] = flagSet.StringSlice(name, defaultValue, description)
}

// DurationFlagOnFlagSet creates and registers a flag accepting a duration
func (cl *CommandLineInterface) DurationFlagOnFlagSet(flagSet *pflag.FlagSet, name string, shorthand *string, defaultValue *time.Duration, description string) {
	if defaultValue == nil {
		cl.nilDefaults[name] = true
		defaultValue = cl.DurationMe(time.Duration(0))
	}
	cl.flagSets[name] = flagSet
	cl.validators[name] = func(val interface{}) error {
		if val == nil {
			return nil
		}
		if *val.(*time.Duration) < 0 {
			return invalidInput(name, "must not be negative")
		}
		return nil
	}
	if shorthand != nil {
		cl.Flags[name] = flagSet.DurationP(name, string(*shorthand), *defaultValue, description)
		return
	}
	cl.Flags[name] = flagSet.Duration(name, *defaultValue, description)
}
