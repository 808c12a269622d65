// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import "github.com/bureau-foundation/objectbus/lib/names"

// Standard interfaces every object answers.
var (
	PropertiesInterface     = names.InterfaceNameUnchecked("org.freedesktop.DBus.Properties")
	IntrospectableInterface = names.InterfaceNameUnchecked("org.freedesktop.DBus.Introspectable")
	PeerInterface           = names.InterfaceNameUnchecked("org.freedesktop.DBus.Peer")
)
