package raster

import (
	"image"

	"github.com/Faultbox/silhouette-tools/pkg/shape"
)

// Composite holds the merged silhouette and gradient images plus the
// individual per-primitive layers they were built from. The layers are
// kept so an edited export can modify one primitive without losing the
// others.
type Composite struct {
	Silhouette *image.Gray
	Gradients  *image.Gray
	Layers     []*Layer
}

// Compose merges the layers in order. Later layers overwrite earlier
// ones wherever their silhouette has nonzero coverage; there is no
// blending.
func Compose(layers []*Layer, c Canvas) *Composite {
	comp := &Composite{
		Silhouette: image.NewGray(image.Rect(0, 0, c.Width, c.Height)),
		Gradients:  image.NewGray(image.Rect(0, 0, c.Width, c.Height)),
		Layers:     layers,
	}

	for _, layer := range layers {
		for i, v := range layer.Silhouette.Pix {
			if v > 0 {
				comp.Silhouette.Pix[i] = v
				comp.Gradients.Pix[i] = layer.Gradients.Pix[i]
			}
		}
	}

	return comp
}

// Render rasterizes every shape in insertion order and composes the
// result on a canvas sized for the whole set.
func Render(shapes []shape.Shape, c Canvas) (*Composite, error) {
	layers := make([]*Layer, 0, len(shapes))
	for _, s := range shapes {
		layer, err := Rasterize(s, c)
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}
	return Compose(layers, c), nil
}
