package configstore

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// ContextKind discriminates the closed set of scopes a script can be linked
// to. Every switch over a ContextKind in this package and its consumers is
// exhaustive over these three values.
type ContextKind uint8

const (
	// ContextGuild scopes a link to the whole guild.
	ContextGuild ContextKind = iota
	// ContextChannel scopes a link to a single channel.
	ContextChannel
	// ContextRole scopes a link to a single role.
	ContextRole
)

func (k ContextKind) String() string {
	switch k {
	case ContextGuild:
		return "guild"
	case ContextChannel:
		return "channel"
	case ContextRole:
		return "role"
	}
	return fmt.Sprintf("ContextKind(%d)", uint8(k))
}

// ScriptContext is the scoping key for where a script is considered active: a
// tagged union over guild / channel / role. ID is the channel or role id and
// zero for the guild kind.
type ScriptContext struct {
	Kind ContextKind `json:"kind"`
	ID   uint64      `json:"id,string,omitempty"`
}

// GuildContext scopes to the whole guild.
func GuildContext() ScriptContext {
	return ScriptContext{Kind: ContextGuild}
}

// ChannelContext scopes to a single channel.
func ChannelContext(channelID uint64) ScriptContext {
	return ScriptContext{Kind: ContextChannel, ID: channelID}
}

// RoleContext scopes to a single role.
func RoleContext(roleID uint64) ScriptContext {
	return ScriptContext{Kind: ContextRole, ID: roleID}
}

// Validate rejects malformed contexts before they reach a store.
func (c ScriptContext) Validate() error {
	switch c.Kind {
	case ContextGuild:
		if c.ID != 0 {
			return errors.New("guild context carries no id")
		}
		return nil
	case ContextChannel:
		if c.ID == 0 {
			return errors.New("channel context requires a channel id")
		}
		return nil
	case ContextRole:
		if c.ID == 0 {
			return errors.New("role context requires a role id")
		}
		return nil
	}
	return errors.Errorf("unknown context kind %d", uint8(c.Kind))
}

func (c ScriptContext) String() string {
	switch c.Kind {
	case ContextGuild:
		return "guild"
	case ContextChannel:
		return fmt.Sprintf("channel:%d", c.ID)
	case ContextRole:
		return fmt.Sprintf("role:%d", c.ID)
	}
	return fmt.Sprintf("unknown(%d):%d", uint8(c.Kind), c.ID)
}

// contextJSON is the wire shape accepted and emitted for ScriptContext.
type contextJSON struct {
	Kind string `json:"kind"`
	ID   uint64 `json:"id,string,omitempty"`
}

func (c ScriptContext) MarshalJSON() ([]byte, error) {
	return json.Marshal(contextJSON{Kind: c.Kind.String(), ID: c.ID})
}

func (c *ScriptContext) UnmarshalJSON(data []byte) error {
	var raw contextJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Kind {
	case "guild":
		*c = GuildContext()
	case "channel":
		*c = ChannelContext(raw.ID)
	case "role":
		*c = RoleContext(raw.ID)
	default:
		return errors.Errorf("unknown context kind %q", raw.Kind)
	}
	return c.Validate()
}
