package base

// Extension is a build-time composition unit applied to every instance of a
// class. Its optional capabilities are detected with type assertions:
// ExtensionInitializer, ExtensionDestructor and MemberContributor.
type Extension interface {
	ExtensionName() string
}

// ExtensionInitializer runs during construction, before attribute hooks.
type ExtensionInitializer interface {
	InitializeExtension(self *Instance) error
}

// ExtensionDestructor runs during destruction, after the class destructor,
// in reverse extension order.
type ExtensionDestructor interface {
	DestroyExtension(self *Instance) error
}

// MemberContributor supplies members composed into the extended class.
// Lifecycle members (initializer, destructor) are ignored; use
// ExtensionInitializer and ExtensionDestructor instead.
type MemberContributor interface {
	ExtensionMembers() Members
}

// Ext is an Extension assembled from plain functions.
type Ext struct {
	Name    string
	Init    Method
	Destroy Method
	Members Members
}

func (e *Ext) ExtensionName() string { return e.Name }

func (e *Ext) InitializeExtension(self *Instance) error {
	if e.Init == nil {
		return nil
	}
	return e.Init(self)
}

func (e *Ext) DestroyExtension(self *Instance) error {
	if e.Destroy == nil {
		return nil
	}
	return e.Destroy(self)
}

func (e *Ext) ExtensionMembers() Members {
	return e.Members
}
