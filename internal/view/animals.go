package view

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tphakala/faunagram-go/internal/api"
	"github.com/tphakala/faunagram-go/internal/imagesearch"
	"github.com/tphakala/faunagram-go/internal/logger"
	"github.com/tphakala/faunagram-go/internal/model"
	"github.com/tphakala/faunagram-go/internal/query"
)

const (
	msgAnimalsEmpty  = "No animals yet!"
	msgAnimalFailed  = "Animal not found."
	msgAnimalLoading = "Loading animal..."
)

// AnimalsView is the animal directory (/animals)
type AnimalsView struct {
	lifecycle
	deps Deps

	mu      sync.Mutex
	animals []model.Animal
	loadErr error
}

// NewAnimals creates the directory view
func NewAnimals(d Deps) *AnimalsView {
	return &AnimalsView{deps: d}
}

// Mount loads the directory
func (v *AnimalsView) Mount(ctx context.Context) error {
	ctx = v.start(ctx)
	animals, sub, err := query.Watch(ctx, v.deps.Cache, query.AnimalsKey(), v.deps.API.Animals.List, v.update)
	v.track(sub)
	sub.ApplyInitial(func() { v.update(animals, err) })
	return err
}

func (v *AnimalsView) update(animals []model.Animal, err error) {
	if !v.alive() {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loadErr = err
	if err == nil {
		v.animals = animals
	}
}

// Animals returns the loaded animals
func (v *AnimalsView) Animals() []model.Animal {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.Animal(nil), v.animals...)
}

// Render draws the directory
func (v *AnimalsView) Render() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.loadErr != nil && len(v.animals) == 0 {
		return errorStyle.Render(msgAnimalsFailed)
	}
	if len(v.animals) == 0 {
		return headingStyle.Render(msgAnimalsEmpty)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Urban Wildlife Directory"))
	for _, a := range v.animals {
		fmt.Fprintf(&b, "\n%4d  %s %s", a.ID, imagesearch.Emoji(a.Name), headingStyle.Render(a.Name))
		if sci := scientificName(&a); sci != "" {
			b.WriteString(" " + mutedStyle.Render(sci))
		}
	}
	return b.String()
}

// AnimalView is an animal's page with taxonomy and image
type AnimalView struct {
	lifecycle
	deps Deps
	id   int
	log  logger.Logger

	mu      sync.Mutex
	animal  *model.Animal
	image   imagesearch.Result
	loadErr error
}

// NewAnimal creates the detail view of animal id
func NewAnimal(d Deps, id int) *AnimalView {
	return &AnimalView{deps: d, id: id, log: d.log("animal")}
}

// Mount loads the animal and, when it has no image, searches one
func (v *AnimalView) Mount(ctx context.Context) error {
	ctx = v.start(ctx)
	fetch := func(ctx context.Context) (*model.Animal, error) { return v.deps.API.Animals.Get(ctx, v.id) }
	a, sub, err := query.Watch(ctx, v.deps.Cache, query.AnimalKey(v.id), fetch, v.update)
	v.track(sub)
	sub.ApplyInitial(func() { v.update(a, err) })
	if err != nil {
		return err
	}
	v.resolveImage(ctx, a)
	return nil
}

func (v *AnimalView) update(a *model.Animal, err error) {
	if !v.alive() {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loadErr = err
	if err == nil {
		v.animal = a
	}
}

func (v *AnimalView) resolveImage(ctx context.Context, a *model.Animal) {
	res := imagesearch.Result{URL: a.Image}
	switch {
	case a.Image != "":
	case v.deps.Images != nil:
		found, err := v.deps.Images.Lookup(ctx, a.Name)
		if err != nil {
			v.log.Debug("image lookup abandoned", logger.Error(err))
			return
		}
		res = found
	default:
		res = imagesearch.Placeholder(a.Name)
	}

	if !v.alive() {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.image = res
}

// Animal returns the loaded animal
func (v *AnimalView) Animal() *model.Animal {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.animal == nil {
		return nil
	}
	a := *v.animal
	return &a
}

// Image returns the image shown for the animal
func (v *AnimalView) Image() imagesearch.Result {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.image
}

// Render draws the animal with its classification from kingdom to species
func (v *AnimalView) Render() string {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.animal == nil {
		if v.loadErr != nil {
			return errorStyle.Render(api.Message(v.loadErr, msgAnimalFailed))
		}
		return mutedStyle.Render(msgAnimalLoading)
	}
	a := v.animal

	head := titleStyle.Render(a.Name)
	if sci := scientificName(a); sci != "" {
		head += "\n" + mutedStyle.Render(sci)
	}

	var tax strings.Builder
	for i, r := range a.Taxonomy() {
		if i > 0 {
			tax.WriteString("\n")
		}
		fmt.Fprintf(&tax, "%-8s %s", titleCase(r.Rank)+":", r.Value)
	}

	img := ""
	switch {
	case v.image.Source == imagesearch.SourcePlaceholder:
		img = v.image.Emoji + " " + mutedStyle.Render(v.image.URL)
	case v.image.URL != "":
		img = "image: " + v.image.URL
		if v.image.Photographer != "" {
			img += mutedStyle.Render(" (photo by " + v.image.Photographer + ")")
		}
	}

	return blocks(head, img, tax.String(), plainText(a.Description))
}

func scientificName(a *model.Animal) string {
	if a.Genus == "" || a.Species == "" {
		return ""
	}
	return titleCase(a.Genus) + " " + strings.ToLower(a.Species)
}
