package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mwantia/uvfs/data"
)

// Parser parses user-defined arguments into flags
type Parser struct {
	flagSet *CommandFlagSet
}

func NewParser(flagSet *CommandFlagSet) *Parser {
	if flagSet == nil {
		flagSet = &CommandFlagSet{}
	}

	return &Parser{
		flagSet: flagSet,
	}
}

func (cp *Parser) Parse(raw []string) (*CommandArgs, error) {
	args := &CommandArgs{
		Flags: make(map[string]any),
		Raw:   raw,
	}

	longToName := make(map[string]string)
	shortToName := make(map[string]string)
	for flagName, flag := range cp.flagSet.Flags {
		if flag.Default != nil {
			args.Flags[flagName] = flag.Default
		}

		longToName[flag.Name] = flagName
		if flag.Short != "" {
			shortToName[flag.Short] = flagName
		}
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]

		if arg == "--" {
			args.Args = append(args.Args, raw[i+1:]...)
			break
		}

		if strings.HasPrefix(arg, "--") {
			key, value, hasValue := parseLongFlag(arg)
			flagName, exists := longToName[key]
			if !exists {
				return nil, fmt.Errorf("%w: unknown flag: --%s", data.ErrInvalid, key)
			}

			flag := cp.flagSet.Flags[flagName]
			switch {
			case flag.Type == "bool" && hasValue:
				args.Flags[flagName] = coerce(value, flag.Type)
			case flag.Type == "bool":
				args.Flags[flagName] = true
			case hasValue:
				args.Flags[flagName] = coerce(value, flag.Type)
			case i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-"):
				args.Flags[flagName] = coerce(raw[i+1], flag.Type)
				i++
			default:
				return nil, fmt.Errorf("%w: flag --%s requires a value", data.ErrInvalid, key)
			}
			continue
		}

		if strings.HasPrefix(arg, "-") && len(arg) > 1 {
			shortFlags := arg[1:]

			for j, shortChar := range shortFlags {
				shortStr := string(shortChar)
				flagName, exists := shortToName[shortStr]
				if !exists {
					return nil, fmt.Errorf("%w: unknown flag: -%s", data.ErrInvalid, shortStr)
				}

				flag := cp.flagSet.Flags[flagName]
				if flag.Type == "bool" {
					args.Flags[flagName] = true
					continue
				}

				// A value flag consumes the rest of the group or the next argument
				if j+1 < len(shortFlags) {
					args.Flags[flagName] = coerce(shortFlags[j+1:], flag.Type)
				} else if i+1 < len(raw) {
					args.Flags[flagName] = coerce(raw[i+1], flag.Type)
					i++
				} else {
					return nil, fmt.Errorf("%w: flag -%s requires a value", data.ErrInvalid, shortStr)
				}
				break
			}
			continue
		}

		args.Args = append(args.Args, arg)
	}

	for flagName, flag := range cp.flagSet.Flags {
		if !flag.Required {
			continue
		}
		if _, ok := args.Flags[flagName]; !ok {
			if flag.Short != "" {
				return nil, fmt.Errorf("%w: required flag: -%s / --%s", data.ErrInvalid, flag.Short, flag.Name)
			}
			return nil, fmt.Errorf("%w: required flag: --%s", data.ErrInvalid, flag.Name)
		}
	}

	return args, nil
}

func parseLongFlag(arg string) (key, value string, hasValue bool) {
	arg = strings.TrimPrefix(arg, "--")
	if idx := strings.Index(arg, "="); idx >= 0 {
		return arg[:idx], arg[idx+1:], true
	}
	return arg, "", false
}

func coerce(value string, typeStr string) any {
	switch typeStr {
	case "int":
		v, _ := strconv.ParseInt(value, 10, 64)
		return v
	case "bool":
		return value == "true" || value == "1" || value == "yes"
	default:
		return value
	}
}
