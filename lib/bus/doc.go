// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bus defines the message model shared by the object server
// and its transports: message headers and flags, the Connection a
// handler replies through, named bus errors, and the signal context
// handed to property setters.
//
// Nothing here touches a socket. lib/busconn implements Connection
// over a Unix socket. lib/bus/bustest implements it in memory and
// records every outgoing message.
//
// Error replies: any error returned by a handler is converted with
// AsError. Errors that implement Error keep their bus-visible name.
// Everything else is reported to the caller as
// org.freedesktop.DBus.Error.Failed with the error text as message.
package bus
