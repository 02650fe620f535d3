package window

import "fmt"

func ExampleGenerate() {
	w := Generate(TypeHann, 4)
	fmt.Printf("%.2f %.2f %.2f %.2f\n", w[0], w[1], w[2], w[3])
	// Output:
	// 0.00 0.75 0.75 0.00
}

func ExampleInfo() {
	m := Info(TypeHann)
	fmt.Printf("%s %.1f %.2f\n", m.Name, m.ENBW, m.ScallopAmplitude)
	// Output:
	// hann 1.5 0.85
}

func ExampleKernel() {
	fmt.Printf("%.3f %.3f\n", Kernel(TypeHann, 0.5), Kernel(TypeHann, 1))
	// Output:
	// 0.849 0.500
}
