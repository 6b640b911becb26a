// Package commands parses and dispatches command-palette input.
package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandeepkv93/listo/internal/model"
)

type Type string

const (
	TypeAdd      Type = "add"
	TypeStatus   Type = "status"
	TypePriority Type = "priority"
	TypeDue      Type = "due"
	TypeRename   Type = "rename"
	TypeDelete   Type = "delete"
	TypeSearch   Type = "search"
	TypeFilter   Type = "filter"
	TypeSubtask  Type = "subtask"
	TypeExport   Type = "export"
	TypeProfile  Type = "profile"
	TypePassword Type = "password"
	TypeLogout   Type = "logout"
	TypeRefresh  Type = "refresh"
)

var aliases = map[string]Type{
	"new":    TypeAdd,
	"rm":     TypeDelete,
	"del":    TypeDelete,
	"find":   TypeSearch,
	"sub":    TypeSubtask,
	"st":     TypeSubtask,
	"reload": TypeRefresh,
}

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// Target names a task: empty means the selected one, otherwise a task id
// written as #id.
type Target string

func (t Target) IsSelected() bool { return t == "" }

type AddArgs struct {
	Title    string
	Subject  string
	Priority model.Priority
	Due      string
}

type StatusArgs struct {
	Target Target
	Status model.Status
}

type PriorityArgs struct {
	Target   Target
	Priority model.Priority
}

type DueArgs struct {
	Target Target
	When   string
}

type RenameArgs struct {
	Target Target
	Title  string
}

type DeleteArgs struct {
	Target Target
}

type SearchArgs struct {
	Term string
}

// FilterArgs changes one or more list filters; Clear resets all of them.
type FilterArgs struct {
	Clear    bool
	Date     *string
	Status   *model.Status
	Priority *model.Priority
}

type SubtaskAction string

const (
	SubtaskAdd    SubtaskAction = "add"
	SubtaskDone   SubtaskAction = "done"
	SubtaskRename SubtaskAction = "rename"
	SubtaskRemove SubtaskAction = "rm"
)

// SubtaskArgs addresses subtasks of the selected task by 1-based position.
type SubtaskArgs struct {
	Action   SubtaskAction
	Position int
	Title    string
}

type ExportArgs struct {
	Path string
}

type ProfileArgs struct {
	FullName string
	Email    string
}

type Command struct {
	Type     Type
	Raw      string
	Add      *AddArgs
	Status   *StatusArgs
	Priority *PriorityArgs
	Due      *DueArgs
	Rename   *RenameArgs
	Delete   *DeleteArgs
	Search   *SearchArgs
	Filter   *FilterArgs
	Subtask  *SubtaskArgs
	Export   *ExportArgs
	Profile  *ProfileArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]
	typ := Type(head)
	if alias, ok := aliases[head]; ok {
		typ = alias
	}

	switch typ {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeStatus:
		return parseStatus(input, args)
	case TypePriority:
		return parsePriority(input, args)
	case TypeDue:
		return parseDue(input, args)
	case TypeRename:
		return parseRename(input, args)
	case TypeDelete:
		target, rest := splitTarget(args)
		if len(rest) > 0 {
			return Command{}, invalid("delete takes at most a #id")
		}
		return Command{Type: TypeDelete, Raw: input, Delete: &DeleteArgs{Target: target}}, nil
	case TypeSearch:
		return Command{Type: TypeSearch, Raw: input, Search: &SearchArgs{Term: strings.Join(args, " ")}}, nil
	case TypeFilter:
		return parseFilter(input, args)
	case TypeSubtask:
		return parseSubtask(input, args)
	case TypeExport:
		return Command{Type: TypeExport, Raw: input, Export: &ExportArgs{Path: strings.Join(args, " ")}}, nil
	case TypeProfile:
		return parseProfile(input, args)
	case TypePassword:
		// Passwords are typed into the masked settings form, never the palette.
		if len(args) > 0 {
			return Command{}, invalid("password takes no arguments; it opens the change-password form")
		}
		return Command{Type: TypePassword, Raw: input}, nil
	case TypeLogout, TypeRefresh:
		return Command{Type: typ, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	out := AddArgs{}
	words := make([]string, 0, len(args))
	for _, arg := range args {
		key, value, ok := option(arg)
		if !ok {
			words = append(words, arg)
			continue
		}
		switch key {
		case "p", "priority":
			p, err := model.ParsePriority(value)
			if err != nil {
				return Command{}, invalid("unknown priority %q", value)
			}
			out.Priority = p
		case "s", "subject":
			out.Subject = value
		case "due":
			out.Due = value
		default:
			words = append(words, arg)
		}
	}
	out.Title = strings.TrimSpace(strings.Join(words, " "))
	if out.Title == "" {
		return Command{}, invalid("add requires a title")
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &out}, nil
}

func parseStatus(raw string, args []string) (Command, error) {
	target, rest := splitTarget(args)
	if len(rest) == 0 {
		return Command{}, invalid("status requires todo, in-progress or done")
	}
	status, err := model.ParseStatus(strings.Join(rest, " "))
	if err != nil {
		return Command{}, invalid("unknown status %q", strings.Join(rest, " "))
	}
	return Command{Type: TypeStatus, Raw: raw, Status: &StatusArgs{Target: target, Status: status}}, nil
}

func parsePriority(raw string, args []string) (Command, error) {
	target, rest := splitTarget(args)
	if len(rest) != 1 {
		return Command{}, invalid("priority requires high, medium or low")
	}
	p, err := model.ParsePriority(rest[0])
	if err != nil {
		return Command{}, invalid("unknown priority %q", rest[0])
	}
	return Command{Type: TypePriority, Raw: raw, Priority: &PriorityArgs{Target: target, Priority: p}}, nil
}

func parseDue(raw string, args []string) (Command, error) {
	target, rest := splitTarget(args)
	if len(rest) == 0 {
		return Command{}, invalid("due requires a date")
	}
	return Command{Type: TypeDue, Raw: raw, Due: &DueArgs{Target: target, When: strings.Join(rest, " ")}}, nil
}

func parseRename(raw string, args []string) (Command, error) {
	target, rest := splitTarget(args)
	title := strings.TrimSpace(strings.Join(rest, " "))
	if title == "" {
		return Command{}, invalid("rename requires a title")
	}
	return Command{Type: TypeRename, Raw: raw, Rename: &RenameArgs{Target: target, Title: title}}, nil
}

func parseFilter(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("filter requires all, today, week, status:<s> or priority:<p>")
	}
	out := FilterArgs{}
	for _, arg := range args {
		lower := strings.ToLower(arg)
		if lower == "clear" || lower == "reset" {
			out.Clear = true
			continue
		}
		key, value, ok := option(arg)
		if !ok {
			switch lower {
			case "all", "any", "today", "week":
				v := lower
				out.Date = &v
				continue
			}
			return Command{}, invalid("unknown filter %q", arg)
		}
		switch key {
		case "status":
			s := model.Status("")
			if !isAny(value) {
				parsed, err := model.ParseStatus(value)
				if err != nil {
					return Command{}, invalid("unknown status %q", value)
				}
				s = parsed
			}
			out.Status = &s
		case "priority", "p":
			p := model.Priority("")
			if !isAny(value) {
				parsed, err := model.ParsePriority(value)
				if err != nil {
					return Command{}, invalid("unknown priority %q", value)
				}
				p = parsed
			}
			out.Priority = &p
		case "date", "due":
			v := strings.ToLower(value)
			out.Date = &v
		default:
			return Command{}, invalid("unknown filter %q", key)
		}
	}
	return Command{Type: TypeFilter, Raw: raw, Filter: &out}, nil
}

func parseSubtask(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("subtask requires add, done, rename or rm")
	}
	action := SubtaskAction(strings.ToLower(args[0]))
	rest := args[1:]
	switch action {
	case "toggle", "undo":
		action = SubtaskDone
	case "remove", "delete":
		action = SubtaskRemove
	}
	out := SubtaskArgs{Action: action}
	switch action {
	case SubtaskAdd:
		out.Title = strings.TrimSpace(strings.Join(rest, " "))
		if out.Title == "" {
			return Command{}, invalid("subtask add requires a title")
		}
	case SubtaskDone, SubtaskRemove, SubtaskRename:
		if len(rest) == 0 {
			return Command{}, invalid("subtask %s requires a position", action)
		}
		n, err := strconv.Atoi(strings.TrimPrefix(rest[0], "#"))
		if err != nil || n < 1 {
			return Command{}, invalid("invalid subtask position %q", rest[0])
		}
		out.Position = n
		if action == SubtaskRename {
			out.Title = strings.TrimSpace(strings.Join(rest[1:], " "))
			if out.Title == "" {
				return Command{}, invalid("subtask rename requires a title")
			}
		}
	default:
		return Command{}, invalid("unknown subtask action %q", args[0])
	}
	return Command{Type: TypeSubtask, Raw: raw, Subtask: &out}, nil
}

func parseProfile(raw string, args []string) (Command, error) {
	out := ProfileArgs{}
	words := make([]string, 0, len(args))
	for _, arg := range args {
		if key, value, ok := option(arg); ok && key == "email" {
			out.Email = value
			continue
		}
		words = append(words, arg)
	}
	out.FullName = strings.TrimSpace(strings.Join(words, " "))
	if out.FullName == "" && out.Email == "" {
		return Command{}, invalid("profile requires a name and/or email:<address>")
	}
	return Command{Type: TypeProfile, Raw: raw, Profile: &out}, nil
}

// splitTarget peels a leading #id off args.
func splitTarget(args []string) (Target, []string) {
	if len(args) > 0 && strings.HasPrefix(args[0], "#") && len(args[0]) > 1 {
		return Target(strings.TrimPrefix(args[0], "#")), args[1:]
	}
	return "", args
}

// option splits key:value tokens; a URL-like value such as "http://x" is not
// treated as an option.
func option(arg string) (string, string, bool) {
	key, value, ok := strings.Cut(arg, ":")
	if !ok || key == "" || value == "" || strings.HasPrefix(value, "//") {
		return "", "", false
	}
	return strings.ToLower(key), value, true
}

func isAny(v string) bool {
	switch strings.ToLower(v) {
	case "all", "any", "":
		return true
	}
	return false
}
