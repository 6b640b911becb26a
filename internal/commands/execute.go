package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add      func(AddArgs) (Result, error)
	Status   func(StatusArgs) (Result, error)
	Priority func(PriorityArgs) (Result, error)
	Due      func(DueArgs) (Result, error)
	Rename   func(RenameArgs) (Result, error)
	Delete   func(DeleteArgs) (Result, error)
	Search   func(SearchArgs) (Result, error)
	Filter   func(FilterArgs) (Result, error)
	Subtask  func(SubtaskArgs) (Result, error)
	Export   func(ExportArgs) (Result, error)
	Profile  func(ProfileArgs) (Result, error)
	Password func() (Result, error)
	Logout   func() (Result, error)
	Refresh  func() (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		return dispatch(cmd.Type, handlers.Add, cmd.Add)
	case TypeStatus:
		return dispatch(cmd.Type, handlers.Status, cmd.Status)
	case TypePriority:
		return dispatch(cmd.Type, handlers.Priority, cmd.Priority)
	case TypeDue:
		return dispatch(cmd.Type, handlers.Due, cmd.Due)
	case TypeRename:
		return dispatch(cmd.Type, handlers.Rename, cmd.Rename)
	case TypeDelete:
		return dispatch(cmd.Type, handlers.Delete, cmd.Delete)
	case TypeSearch:
		return dispatch(cmd.Type, handlers.Search, cmd.Search)
	case TypeFilter:
		return dispatch(cmd.Type, handlers.Filter, cmd.Filter)
	case TypeSubtask:
		return dispatch(cmd.Type, handlers.Subtask, cmd.Subtask)
	case TypeExport:
		return dispatch(cmd.Type, handlers.Export, cmd.Export)
	case TypeProfile:
		return dispatch(cmd.Type, handlers.Profile, cmd.Profile)
	case TypePassword:
		return dispatchNoArgs(cmd.Type, handlers.Password)
	case TypeLogout:
		return dispatchNoArgs(cmd.Type, handlers.Logout)
	case TypeRefresh:
		return dispatchNoArgs(cmd.Type, handlers.Refresh)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func dispatch[A any](typ Type, handler func(A) (Result, error), args *A) (Result, error) {
	if handler == nil {
		return Result{}, missing(typ)
	}
	if args == nil {
		return Result{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s has no arguments", typ)}
	}
	return handler(*args)
}

func dispatchNoArgs(typ Type, handler func() (Result, error)) (Result, error) {
	if handler == nil {
		return Result{}, missing(typ)
	}
	return handler()
}

func missing(typ Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", typ)}
}

// Usage lists the palette grammar for the help view.
func Usage() []string {
	return []string{
		"add <title> [p:high|medium|low] [s:<subject>] [due:<date>]",
		"status [#id] todo|in-progress|done",
		"priority [#id] high|medium|low",
		"due [#id] today|tomorrow|+3d|fri|2006-01-02 [15:04]",
		"rename [#id] <title>",
		"delete [#id]",
		"search <text>",
		"filter all|today|week|status:<s>|priority:<p>|clear",
		"subtask add <title> | done <n> | rename <n> <title> | rm <n>",
		"export [path.xlsx]",
		"profile <full name> [email:<address>]",
		"password",
		"refresh",
		"logout",
	}
}
