package orocos_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/orocos"
	"github.com/aretw0/orocos/pkg/adapters/memory"
	"github.com/aretw0/orocos/pkg/domain"
)

// ExampleClient_Task drives a simulated task through its lifecycle. The
// in-memory adapters stand in for the naming service and the transport.
func ExampleClient_Task() {
	ctx := context.Background()
	naming := memory.NewNaming()
	transport := memory.NewTransport()

	client := orocos.New(
		orocos.WithCatalog(memory.NewCatalog()),
		orocos.WithLoader(memory.NewDefinitions()),
		orocos.WithNaming(naming),
		orocos.WithTransport(transport),
		orocos.WithoutSigchldHandler(),
	)
	if err := client.Initialize(ctx); err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	sim := memory.NewTask("camera", memory.WithPort("frames", domain.PortOutput, "/int32_t"))
	if err := memory.Publish(ctx, transport, naming, sim); err != nil {
		log.Fatal(err)
	}

	camera, err := client.Task(ctx, "camera")
	if err != nil {
		log.Fatal(err)
	}
	for _, step := range []func(context.Context) error{camera.Configure, camera.Start} {
		if err := step(ctx); err != nil {
			log.Fatal(err)
		}
		state, _ := camera.State(ctx)
		fmt.Println(state)
	}

	sim.Publish("frames", 30)
	frames, _ := camera.Port(ctx, "frames")
	v, ok, _ := frames.Read(ctx)
	fmt.Println(v, ok)

	// Output:
	// STOPPED
	// RUNNING
	// 30 true
}
