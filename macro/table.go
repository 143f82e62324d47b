package macro

// Table is an immutable set of package-provided macros, environments and
// expansion commands. Build one with a Builder.
type Table struct {
	macros   map[string]*Definition
	envs     map[string]*Environment
	commands map[string]Command
}

// Builder accumulates definitions in registration order. A later definition
// replaces an earlier one with the same name.
type Builder struct {
	t Table
}

func NewBuilder() *Builder {
	return &Builder{t: Table{
		macros:   make(map[string]*Definition),
		envs:     make(map[string]*Environment),
		commands: make(map[string]Command),
	}}
}

func (b *Builder) Define(d *Definition) {
	delete(b.t.commands, d.Name)
	b.t.macros[d.Name] = d
}

func (b *Builder) DefineEnvironment(env *Environment) { b.t.envs[env.Name] = env }

func (b *Builder) DefineCommand(name string, cmd Command) {
	delete(b.t.macros, name)
	b.t.commands[name] = cmd
}

// Undefine removes any macro or command bound to name, so a later package can
// hand the name back to the parser.
func (b *Builder) Undefine(name string) {
	delete(b.t.macros, name)
	delete(b.t.commands, name)
}

// Build returns a snapshot; the builder may keep being used afterwards.
func (b *Builder) Build() *Table {
	t := &Table{
		macros:   make(map[string]*Definition, len(b.t.macros)),
		envs:     make(map[string]*Environment, len(b.t.envs)),
		commands: make(map[string]Command, len(b.t.commands)),
	}
	for k, v := range b.t.macros {
		t.macros[k] = v
	}
	for k, v := range b.t.envs {
		t.envs[k] = v
	}
	for k, v := range b.t.commands {
		t.commands[k] = v
	}
	return t
}

func (t *Table) Macro(name string) (*Definition, bool) {
	d, ok := t.macros[name]
	return d, ok
}

func (t *Table) Environment(name string) (*Environment, bool) {
	e, ok := t.envs[name]
	return e, ok
}

func (t *Table) Command(name string) (Command, bool) {
	c, ok := t.commands[name]
	return c, ok
}

// Len returns the number of macros and commands in the table.
func (t *Table) Len() int { return len(t.macros) + len(t.commands) }

// Namespace is the session-local macro scope. Definitions made during one
// render land here and never reach the shared Table.
type Namespace struct {
	parent *Table
	macros map[string]*Definition
	envs   map[string]*Environment
}

func NewNamespace(parent *Table) *Namespace {
	if parent == nil {
		parent = NewBuilder().Build()
	}
	return &Namespace{
		parent: parent,
		macros: make(map[string]*Definition),
		envs:   make(map[string]*Environment),
	}
}

func (n *Namespace) Define(d *Definition)              { n.macros[d.Name] = d }
func (n *Namespace) DefineEnvironment(e *Environment) { n.envs[e.Name] = e }

func (n *Namespace) Macro(name string) (*Definition, bool) {
	if d, ok := n.macros[name]; ok {
		return d, ok
	}
	return n.parent.Macro(name)
}

func (n *Namespace) Environment(name string) (*Environment, bool) {
	if e, ok := n.envs[name]; ok {
		return e, ok
	}
	return n.parent.Environment(name)
}

func (n *Namespace) Command(name string) (Command, bool) { return n.parent.Command(name) }

// Defined reports whether name is bound to a macro or command in any scope.
func (n *Namespace) Defined(name string) bool {
	if _, ok := n.Macro(name); ok {
		return true
	}
	_, ok := n.Command(name)
	return ok
}
