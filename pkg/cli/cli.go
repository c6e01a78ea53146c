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

// Package cli provides the flag registration, parsing and validation layer for the subcommands of ec2-instance-interchange
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
)

// validator checks a parsed flag value. A nil value means the flag was not set and has no default.
type validator = func(val interface{}) error

// processor converts a parsed flag value into the type handed to the caller
type processor = func(val interface{}) (interface{}, error)

// CommandLineInterface wraps a cobra command and the flags registered on it
type CommandLineInterface struct {
	Command     *cobra.Command
	Flags       map[string]interface{}
	nilDefaults map[string]bool
	validators  map[string]validator
	processors  map[string]processor
	flagSets    map[string]*pflag.FlagSet
}

// New creates an instance of CommandLineInterface
func New(use string, shortUsage string, longUsage string, examples string, run func(cmd *cobra.Command, args []string) error) CommandLineInterface {
	cmd := &cobra.Command{
		Use:           use,
		Short:         shortUsage,
		Long:          longUsage,
		Example:       examples,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	return CommandLineInterface{
		Command:     cmd,
		Flags:       map[string]interface{}{},
		nilDefaults: map[string]bool{},
		validators:  map[string]validator{},
		processors:  map[string]processor{},
		flagSets:    map[string]*pflag.FlagSet{},
	}
}

// AddCommand registers subcommands under this command
func (cl *CommandLineInterface) AddCommand(subcommands ...CommandLineInterface) {
	for _, sub := range subcommands {
		cl.Command.AddCommand(sub.Command)
	}
}

// Execute runs the command with os.Args
func (cl *CommandLineInterface) Execute() error {
	return cl.Command.Execute()
}

// ParseFlags parses the given arguments and returns the flag values.
// Flags registered without a default that were not set on the command line are nil.
func (cl *CommandLineInterface) ParseFlags(args []string) (map[string]interface{}, error) {
	if err := cl.Command.ParseFlags(args); err != nil {
		return nil, err
	}
	return cl.collectFlags()
}

// ParseAndValidateFlags parses the given arguments and validates every flag
func (cl *CommandLineInterface) ParseAndValidateFlags(args []string) (map[string]interface{}, error) {
	if err := cl.Command.ParseFlags(args); err != nil {
		return nil, err
	}
	return cl.ProcessFlags()
}

// ProcessFlags returns the validated flag values of a command that cobra already parsed
func (cl *CommandLineInterface) ProcessFlags() (map[string]interface{}, error) {
	flags, err := cl.collectFlags()
	if err != nil {
		return nil, err
	}
	if err := cl.validateFlags(flags); err != nil {
		return nil, err
	}
	return flags, nil
}

// ValidateFlags runs the validators of every registered flag against the current values
func (cl *CommandLineInterface) ValidateFlags() error {
	flags, err := cl.collectFlags()
	if err != nil {
		return err
	}
	return cl.validateFlags(flags)
}

func (cl *CommandLineInterface) validateFlags(flags map[string]interface{}) error {
	var errs error
	for flagName, validationFn := range cl.validators {
		if validationFn == nil {
			continue
		}
		errs = multierr.Append(errs, validationFn(flags[flagName]))
	}
	return errs
}

func (cl *CommandLineInterface) collectFlags() (map[string]interface{}, error) {
	flags := make(map[string]interface{}, len(cl.Flags))
	for name, val := range cl.Flags {
		if cl.nilDefaults[name] && !cl.IsSet(name) {
			flags[name] = nil
			continue
		}
		if processFn, ok := cl.processors[name]; ok {
			processed, err := processFn(val)
			if err != nil {
				return nil, err
			}
			val = processed
		}
		flags[name] = val
	}
	return flags, nil
}

// IsSet returns true if the flag was passed on the command line
func (cl *CommandLineInterface) IsSet(name string) bool {
	flagSet, ok := cl.flagSets[name]
	if !ok {
		return false
	}
	flag := flagSet.Lookup(name)
	return flag != nil && flag.Changed
}

// SetUsageTemplate groups config flags under their own heading in --help
func (cl *CommandLineInterface) SetUsageTemplate() {
	cl.Command.SetUsageTemplate(strings.Replace(cl.Command.UsageTemplate(), "Global Flags:", "Config Flags:", 1))
}

func invalidInput(name string, format string, args ...interface{}) error {
	return fmt.Errorf("invalid input for --%s: %s", name, fmt.Sprintf(format, args...))
}
