package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/desertthunder/spx/internal/keymap"
)

// resolution is the outcome of feeding one key to a [keyResolver].
type resolution struct {
	command *keymap.Command
	action  *keymap.ActionMap
	pending bool
}

// keyResolver buffers key presses until they form a bound sequence.
//
// A key that extends the buffer to a prefix of some binding is held. When the
// buffer stops matching anything it is dropped and the last key is tried alone,
// so a mistyped prefix does not swallow the next command.
type keyResolver struct {
	config  *keymap.Config
	pending keymap.KeySequence
}

func (r *keyResolver) feed(k keymap.Key) resolution {
	seq := append(append(keymap.KeySequence{}, r.pending...), k)
	if res, ok := r.match(seq); ok {
		return res
	}
	if len(seq) > 1 {
		if res, ok := r.match(keymap.KeySequence{k}); ok {
			return res
		}
	}
	r.pending = nil
	return resolution{}
}

func (r *keyResolver) match(seq keymap.KeySequence) (resolution, bool) {
	if cmd, ok := r.config.Find(seq); ok {
		r.pending = nil
		return resolution{command: &cmd}, true
	}
	if act, ok := r.config.FindAction(seq); ok {
		r.pending = nil
		return resolution{action: &act}, true
	}
	if r.config.HasPrefix(seq) {
		r.pending = seq
		return resolution{pending: true}, true
	}
	return resolution{}, false
}

func (r *keyResolver) reset() {
	r.pending = nil
}

// helpKeys adapts the keymap config to [help.KeyMap] for the footer.
type helpKeys struct {
	config *keymap.Config
}

func (h helpKeys) binding(kind keymap.CommandKind) key.Binding {
	cmd := keymap.C(kind)
	seqs := h.config.KeysFor(cmd)
	if len(seqs) == 0 {
		return key.NewBinding(key.WithDisabled())
	}
	keys := make([]string, len(seqs))
	for i, s := range seqs {
		keys[i] = s.String()
	}
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], cmd.String()))
}

func (h helpKeys) ShortHelp() []key.Binding {
	return []key.Binding{
		h.binding(keymap.CmdResumePause),
		h.binding(keymap.CmdChooseSelected),
		h.binding(keymap.CmdSearch),
		h.binding(keymap.CmdOpenCommandHelp),
		h.binding(keymap.CmdQuit),
	}
}

func (h helpKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{h.binding(keymap.CmdSelectNextOrScrollDown), h.binding(keymap.CmdSelectPreviousOrScrollUp), h.binding(keymap.CmdChooseSelected)},
		{h.binding(keymap.CmdPreviousPage), h.binding(keymap.CmdClosePopup), h.binding(keymap.CmdQuit)},
	}
}
