package botvac

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	protoFile   = "botvac/v1/botvac.proto"
	ServiceName = "botvac.v1.BotvacService"
)

const (
	methodStartCleaning = "StartCleaning"
	methodStopCleaning  = "StopCleaning"
	methodDockBotvac    = "DockBotvac"
	methodGetState      = "GetState"
)

var (
	emptyName  = "." + string((&emptypb.Empty{}).ProtoReflect().Descriptor().FullName())
	structName = "." + string((&structpb.Struct{}).ProtoReflect().Descriptor().FullName())
)

func method(name, output string) *descriptorpb.MethodDescriptorProto {
	return &descriptorpb.MethodDescriptorProto{
		Name:       proto.String(name),
		InputType:  proto.String(emptyName),
		OutputType: proto.String(output),
	}
}

// fileDescriptorProto describes the service for server reflection. There is
// no .proto source; requests are empty and GetState answers with a Struct.
func fileDescriptorProto() *descriptorpb.FileDescriptorProto {
	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(protoFile),
		Package: proto.String("botvac.v1"),
		Syntax:  proto.String("proto3"),
		Dependency: []string{
			(&emptypb.Empty{}).ProtoReflect().Descriptor().ParentFile().Path(),
			(&structpb.Struct{}).ProtoReflect().Descriptor().ParentFile().Path(),
		},
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/joshp123/botvac/plugins/botvac"),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("BotvacService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				method(methodStartCleaning, emptyName),
				method(methodStopCleaning, emptyName),
				method(methodDockBotvac, emptyName),
				method(methodGetState, structName),
			},
		}},
	}
}

// FileDescriptor is the registered descriptor of the botvac service.
var FileDescriptor protoreflect.FileDescriptor

func init() {
	fd, err := protodesc.NewFile(fileDescriptorProto(), protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("botvac: build descriptor: %v", err))
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("botvac: register descriptor: %v", err))
	}
	FileDescriptor = fd
}
