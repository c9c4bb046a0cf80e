package dance

import "github.com/CamStan/WOU-CS490/internal/logic/motion"

const (
	cw  = motion.Clockwise
	ccw = motion.CounterClockwise
)

// Demo is the showcase choreography: a short intro, then the main figure
// twice. It takes about a minute on the real motors.
func Demo() []Step {
	steps := []Step{
		Spark(cw, 90, 90),
		Spark(ccw, 90, 90),
		Kysan(cw, 18, 25),
		Spark(ccw, 90, 90),
		Spark(cw, 90, 90),
		Kysan(ccw, 18, 25),

		LED(25),
		Spark(cw, 90, 90),
		Laser(25),

		LED(0),
		Kysan(cw, 90, 90),
		Laser(0),

		LED(15),
		Spark(ccw, 45, 45),
		Laser(15),

		LED(0),
		Kysan(ccw, 45, 45),
		Laser(1),

		LED(1),
	}
	for i := 0; i < 2; i++ {
		steps = append(steps, figure()...)
	}
	return steps
}

func figure() []Step {
	return []Step{
		Kysan(cw, 90, 90),
		Kysan(ccw, 90, 90),
		Spark(cw, 18, 25),
		Kysan(ccw, 90, 90),
		Kysan(cw, 90, 90),
		Spark(ccw, 18, 25),

		LED(35),
		Kysan(cw, 90, 90),
		Laser(35),

		LED(10),
		Spark(cw, 90, 90),
		Laser(10),

		LED(50),
		Kysan(ccw, 45, 45),
		Laser(50),

		Spark(ccw, 45, 45),
		LED(75),
		Laser(75),

		// Kysan winds up clockwise, LED fading out.
		Kysan(cw, 20, 20),
		Laser(1),
		LED(90),
		Kysan(cw, 45, 45),
		LED(75),
		Kysan(cw, 90, 90),
		LED(50),
		Kysan(cw, 120, 120),
		LED(25),
		Kysan(cw, 180, 180),

		// and back, laser fading in.
		Kysan(ccw, 180, 180),
		LED(1),
		Laser(25),
		Kysan(ccw, 120, 120),
		Laser(50),
		Kysan(ccw, 90, 90),
		Laser(75),
		Kysan(ccw, 45, 45),
		Laser(90),
		Kysan(ccw, 20, 20),

		// Same figure on the Spark, lights swapped.
		Spark(cw, 20, 20),
		LED(1),
		Laser(90),
		Spark(cw, 45, 45),
		Laser(75),
		Spark(cw, 90, 90),
		Laser(50),
		Spark(cw, 120, 120),
		Laser(25),
		Spark(cw, 180, 180),

		Spark(ccw, 180, 180),
		Laser(1),
		LED(25),
		Spark(ccw, 120, 120),
		LED(50),
		Spark(ccw, 90, 90),
		LED(75),
		Spark(ccw, 45, 45),
		LED(90),
		Spark(ccw, 20, 20),

		LED(0),
		Laser(0),
	}
}
