// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package objectserver

import (
	"encoding/xml"
	"io"
	"strings"
)

const introspectHeader = `<!DOCTYPE node PUBLIC "-//freedesktop//DTD D-BUS Object Introspection 1.0//EN"
 "http://www.freedesktop.org/standards/dbus/1.0/introspect.dtd">
`

const standardFragments = `<interface name="org.freedesktop.DBus.Peer">
  <method name="Ping">
  </method>
  <method name="GetMachineId">
    <arg type="s" direction="out"/>
  </method>
</interface>
<interface name="org.freedesktop.DBus.Introspectable">
  <method name="Introspect">
    <arg type="s" direction="out"/>
  </method>
</interface>
<interface name="org.freedesktop.DBus.Properties">
  <method name="Get">
    <arg name="interface_name" type="s" direction="in"/>
    <arg name="property_name" type="s" direction="in"/>
    <arg type="v" direction="out"/>
  </method>
  <method name="Set">
    <arg name="interface_name" type="s" direction="in"/>
    <arg name="property_name" type="s" direction="in"/>
    <arg name="value" type="v" direction="in"/>
  </method>
  <method name="GetAll">
    <arg name="interface_name" type="s" direction="in"/>
    <arg type="a{sv}" direction="out"/>
  </method>
  <signal name="PropertiesChanged">
    <arg name="interface_name" type="s"/>
    <arg name="changed_properties" type="a{sv}"/>
    <arg name="invalidated_properties" type="as"/>
  </signal>
</interface>
`

// introspect renders the document for one object. Handler fragments
// are written under each handler's shared lock.
func introspect(target resolved) string {
	var builder strings.Builder
	builder.WriteString(introspectHeader)
	builder.WriteString("<node>\n")
	WriteIndented(&builder, 2, standardFragments)
	for _, arc := range target.interfaces {
		arc.WriteIntrospection(&builder, 2)
	}
	for _, child := range target.children {
		builder.WriteString(`  <node name="`)
		_ = xml.EscapeText(&builder, []byte(child))
		builder.WriteString("\"/>\n")
	}
	builder.WriteString("</node>\n")
	return builder.String()
}

// WriteIndented writes fragment with every non-empty line indented by
// level spaces, or none when level is negative. Handlers use it to
// implement WriteIntrospection from a constant fragment. Write errors
// are ignored.
func WriteIndented(w io.Writer, level int, fragment string) {
	indent := strings.Repeat(" ", max(level, 0))
	for line := range strings.Lines(fragment) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		_, _ = io.WriteString(w, indent)
		_, _ = io.WriteString(w, line)
		if !strings.HasSuffix(line, "\n") {
			_, _ = io.WriteString(w, "\n")
		}
	}
}
