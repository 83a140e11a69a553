package ops

import "fmt"

// Build returns a registry holding the named commands. start is always
// registered. stats feeds /status and may be nil.
func Build(names []string, stats func() Stats) (*Registry, error) {
	reg := NewRegistry()
	if err := reg.Register(&StartOp{}); err != nil {
		return nil, err
	}

	for _, name := range names {
		var op Op
		switch name {
		case "start":
			continue
		case "help":
			op = &HelpOp{Registry: reg}
		case "status":
			op = &StatusOp{Stats: stats}
		default:
			return nil, fmt.Errorf("unknown command %q", name)
		}
		if err := reg.Register(op); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
