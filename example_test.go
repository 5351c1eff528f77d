package svdimage_test

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/yyyoichi/svdimage"
	"gonum.org/v1/gonum/mat"
)

func Example_compress() {
	// A rank-1 gradient: every row is a multiple of the first one.
	img := image.NewGray(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + 1) * (y + 1) * 4)})
		}
	}

	c, err := svdimage.New()
	if err != nil {
		fmt.Printf("Error creating compressor: %v\n", err)
		return
	}

	ctx := context.Background()
	res, err := c.Rank(ctx, img, 1)
	if err != nil {
		fmt.Printf("Error compressing: %v\n", err)
		return
	}
	fmt.Printf("%s %g: %d/%d components, %.2f%% energy\n", res.Mode, res.Value, res.Components, res.K, res.Energy*100)

	// A rank above the number of singular values uses all of them.
	res, err = c.Rank(ctx, img, 100)
	if err != nil {
		fmt.Printf("Error compressing: %v\n", err)
		return
	}
	fmt.Printf("%s %g: %d/%d components\n", res.Mode, res.Value, res.Components, res.K)

	_, err = c.Energy(ctx, img, 150)
	fmt.Println(err != nil)

	// Output:
	// RANK 1: 1/6 components, 100.00% energy
	// RANK 100: 6/6 components
	// true
}

func ExampleEnergyTruncate() {
	// H * diag(10, 5, 1, 0.1) * H with an orthogonal H.
	h := mat.NewDense(4, 4, []float64{
		.5, .5, .5, .5,
		.5, -.5, .5, -.5,
		.5, .5, -.5, -.5,
		.5, -.5, -.5, .5,
	})
	var a mat.Dense
	a.Product(h, mat.NewDiagDense(4, []float64{10, 5, 1, 0.1}), h)

	for _, percent := range []float64{90, 99.5} {
		rebuilt, err := svdimage.EnergyTruncate(percent, &a)
		if err != nil {
			fmt.Printf("Error truncating: %v\n", err)
			return
		}
		var diff mat.Dense
		diff.Sub(&a, rebuilt)
		fmt.Printf("%g%%: error %.4f\n", percent, mat.Norm(&diff, 2))
	}

	// Output:
	// 90%: error 1.0050
	// 99.5%: error 0.1000
}
