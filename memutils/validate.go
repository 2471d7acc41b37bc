package memutils

// Validatable is anything that can check its own internal consistency. DebugValidate accepts it
// so that containers and allocators can be verified after every structural change in debug builds.
type Validatable interface {
	Validate() error
}
