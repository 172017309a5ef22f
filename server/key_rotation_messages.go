package server

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// keyRotationFile mirrors keyrotation.proto. Messages are built from it with
// dynamicpb, so the wire format is the one protoc would generate.
var keyRotationFile = &descriptorpb.FileDescriptorProto{
	Name:    proto.String("keyrotation.proto"),
	Package: proto.String("keyrotation"),
	Syntax:  proto.String("proto3"),
	MessageType: []*descriptorpb.DescriptorProto{
		{
			Name: proto.String("NotifyKeyRolledRequest"),
			Field: []*descriptorpb.FieldDescriptorProto{
				scalarField("previous_kid", "previousKid", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				scalarField("current_kid", "currentKid", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				scalarField("current_public_key_pem", "currentPublicKeyPem", 3, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				scalarField("rolled_at", "rolledAt", 4, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				scalarField("remove_previous", "removePrevious", 5, descriptorpb.FieldDescriptorProto_TYPE_BOOL),
			},
		},
		{
			Name: proto.String("NotifyKeyRolledResponse"),
			Field: []*descriptorpb.FieldDescriptorProto{
				scalarField("message", "message", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
			},
		},
	},
	Service: []*descriptorpb.ServiceDescriptorProto{
		{
			Name: proto.String("KeyRotationNotifyService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				{
					Name:       proto.String("NotifyKeyRolled"),
					InputType:  proto.String(".keyrotation.NotifyKeyRolledRequest"),
					OutputType: proto.String(".keyrotation.NotifyKeyRolledResponse"),
				},
			},
		},
	},
}

func scalarField(name, jsonName string, number int32, typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		JsonName: proto.String(jsonName),
		Number:   proto.Int32(number),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:     typ.Enum(),
	}
}

var (
	requestDesc  protoreflect.MessageDescriptor
	responseDesc protoreflect.MessageDescriptor
)

func init() {
	fd, err := protodesc.NewFile(keyRotationFile, new(protoregistry.Files))
	if err != nil {
		panic("keyrotation descriptor: " + err.Error())
	}
	requestDesc = fd.Messages().ByName("NotifyKeyRolledRequest")
	responseDesc = fd.Messages().ByName("NotifyKeyRolledResponse")
}

type NotifyKeyRolledRequest struct {
	PreviousKid         string
	CurrentKid          string
	CurrentPublicKeyPem string
	RolledAt            string
	RemovePrevious      bool
}

type NotifyKeyRolledResponse struct {
	Message string
}

// Encode builds the keyrotation.NotifyKeyRolledRequest wire message.
func (r *NotifyKeyRolledRequest) Encode() proto.Message {
	m := dynamicpb.NewMessage(requestDesc)
	fields := requestDesc.Fields()
	setString(m, fields.ByName("previous_kid"), r.PreviousKid)
	setString(m, fields.ByName("current_kid"), r.CurrentKid)
	setString(m, fields.ByName("current_public_key_pem"), r.CurrentPublicKeyPem)
	setString(m, fields.ByName("rolled_at"), r.RolledAt)
	if r.RemovePrevious {
		m.Set(fields.ByName("remove_previous"), protoreflect.ValueOfBool(true))
	}
	return m
}

// Encode builds the keyrotation.NotifyKeyRolledResponse wire message.
func (r *NotifyKeyRolledResponse) Encode() proto.Message {
	m := dynamicpb.NewMessage(responseDesc)
	setString(m, responseDesc.Fields().ByName("message"), r.Message)
	return m
}

// RequestFromMessage decodes a keyrotation.NotifyKeyRolledRequest.
func RequestFromMessage(m protoreflect.ProtoMessage) *NotifyKeyRolledRequest {
	msg := m.ProtoReflect()
	fields := requestDesc.Fields()
	return &NotifyKeyRolledRequest{
		PreviousKid:         msg.Get(fields.ByName("previous_kid")).String(),
		CurrentKid:          msg.Get(fields.ByName("current_kid")).String(),
		CurrentPublicKeyPem: msg.Get(fields.ByName("current_public_key_pem")).String(),
		RolledAt:            msg.Get(fields.ByName("rolled_at")).String(),
		RemovePrevious:      msg.Get(fields.ByName("remove_previous")).Bool(),
	}
}

// ResponseFromMessage decodes a keyrotation.NotifyKeyRolledResponse.
func ResponseFromMessage(m protoreflect.ProtoMessage) *NotifyKeyRolledResponse {
	return &NotifyKeyRolledResponse{
		Message: m.ProtoReflect().Get(responseDesc.Fields().ByName("message")).String(),
	}
}

// NewRequestMessage and NewResponseMessage return empty wire messages to
// decode into.
func NewRequestMessage() proto.Message  { return dynamicpb.NewMessage(requestDesc) }
func NewResponseMessage() proto.Message { return dynamicpb.NewMessage(responseDesc) }

func setString(m *dynamicpb.Message, fd protoreflect.FieldDescriptor, v string) {
	if v != "" {
		m.Set(fd, protoreflect.ValueOfString(v))
	}
}
