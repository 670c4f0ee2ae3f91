package session

// BootstrapState is the progress of resolving the active dataset at startup.
type BootstrapState int

const (
	// StateNoDataset means the configuration has no dataset and bootstrap has not run.
	StateNoDataset BootstrapState = iota
	// StateResolvingDefault means the dataset directory is being fetched.
	StateResolvingDefault
	// StateResolved means an active dataset is set.
	StateResolved
	// StatePromptingUser means the user has to pick a dataset.
	StatePromptingUser
)

func (s BootstrapState) String() string {
	switch s {
	case StateNoDataset:
		return "no_dataset"
	case StateResolvingDefault:
		return "resolving_default"
	case StateResolved:
		return "resolved"
	case StatePromptingUser:
		return "prompting_user"
	default:
		return "unknown"
	}
}

// View is the dialog currently shown over the conversation.
// Only one can be open at a time.
type View int

const (
	ViewNone View = iota
	ViewSettings
	ViewDatasetSelector
	ViewDataBrowser
)

func (v View) String() string {
	switch v {
	case ViewNone:
		return "none"
	case ViewSettings:
		return "settings"
	case ViewDatasetSelector:
		return "dataset_selector"
	case ViewDataBrowser:
		return "data_browser"
	default:
		return "unknown"
	}
}
