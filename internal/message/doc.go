// Package message parses and encodes HDF5 object header messages.
//
// Only the messages that matter to a group's attribute table are decoded:
// Dataspace, Datatype, Attribute, Attribute Info, Link Info, Group Info,
// Symbol Table and Continuation. Every other type is carried as [Unknown]
// so that a rewritten header can reproduce it byte for byte.
//
// Messages that can be written implement [Serializable]; [Encode] turns one
// into the raw body stored in an object header:
//
//	body, err := message.Encode(attr, cfg)
package message
