// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package engine_test

import (
	"fmt"
	"log"

	"github.com/gviegas/texup/bitmap"
	"github.com/gviegas/texup/driver/soft"
	"github.com/gviegas/texup/engine"
)

// Example_upload uploads a checkerboard and samples it
// with repeat addressing.
func Example_upload() {
	gpu := soft.New(nil)
	up := engine.NewUploader(gpu)

	bm, err := bitmap.Checker(2, 2, 0xffff0000, 0xff00ff00)
	if err != nil {
		log.Fatal(err)
	}
	tex, err := up.NewTexture(bm, 0)
	if err != nil {
		log.Fatal(err)
	}
	defer tex.Destroy()
	fmt.Println(tex.Strategy(), tex.Width(), tex.Height(), tex.Layout())

	for _, uv := range [...][2]float32{{0.25, 0.25}, {0.75, 0.25}, {1.25, 0.25}} {
		c, err := gpu.Sample(tex.Sampler(), tex.View(), uv[0], uv[1])
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("0x%08x\n", c)
	}

	// Output:
	// direct-linear 2 2 shader-read-only
	// 0xffff0000
	// 0xff00ff00
	// 0xffff0000
}

// Example_staged forces the use of a staging image.
func Example_staged() {
	gpu := soft.New(nil)
	up := engine.NewUploader(gpu, engine.WithStaging(true))

	bm, err := bitmap.Checker(3, 3, 0xff000000, 0xffffffff)
	if err != nil {
		log.Fatal(err)
	}
	tex, err := up.NewTexture(bm, 0)
	if err != nil {
		log.Fatal(err)
	}
	s := gpu.Stats()
	fmt.Println(tex.Strategy(), s.ImagesCreated, s.Images, s.Copies)
	tex.Destroy()
	s = gpu.Stats()
	fmt.Println(s.Images, s.Memories, s.Views, s.Samplers)

	// Output:
	// staged-optimal 2 1 1
	// 0 0 0 0
}
