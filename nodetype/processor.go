package nodetype

import (
	"fmt"
	"time"

	"github.com/sharedcode/som"
	"github.com/sharedcode/som/item"
	"github.com/sharedcode/som/pathutil"
)

// Well-known autocreated property names (spec §4.8 step 2).
const (
	JCRUUID           = "jcr:uuid"
	JCRCreatedBy      = "jcr:createdBy"
	JCRLastModifiedBy = "jcr:lastModifiedBy"
	JCRCreated        = "jcr:created"
	JCRLastModified   = "jcr:lastModified"
	JCREtag           = "jcr:etag"
	mixReferenceable  = "mix:referenceable"
)

// Processor runs node-type driven validation and autocreation (spec §4.8).
type Processor struct {
	Registry *Registry
	// UserID is attributed to jcr:createdBy/jcr:lastModifiedBy autocreation.
	UserID string
	// AutoLastModified enables refreshing jcr:lastModified/jcr:lastModifiedBy
	// on a clean, already-autocreated property when its owning node is
	// touched again (spec §4.8 step 2).
	AutoLastModified bool
}

// NewProcessor returns a Processor bound to reg.
func NewProcessor(reg *Registry, userID string) *Processor {
	return &Processor{Registry: reg, UserID: userID, AutoLastModified: true}
}

// Process validates n's properties against its declared types and emits
// the AddNode operations implied by child autocreation. The caller
// (session.AddNode) appends the returned operations to the OperationLog.
func (p *Processor) Process(n *item.Node) ([]item.Operation, error) {
	types := p.Registry.EffectiveTypes(n.PrimaryType, n.MixinTypes)

	var emitted []item.Operation

	for _, nt := range types {
		for _, cd := range nt.ChildDefinitions {
			ops, err := p.processChildDefinition(n, cd)
			if err != nil {
				return nil, err
			}
			emitted = append(emitted, ops...)
		}
		for _, pd := range nt.PropertyDefinitions {
			if err := p.processPropertyDefinition(n, pd); err != nil {
				return nil, err
			}
		}
	}

	for _, prop := range n.Properties {
		if err := p.validateProperty(prop); err != nil {
			return nil, err
		}
	}

	return emitted, nil
}

func (p *Processor) processChildDefinition(n *item.Node, cd ChildDefinition) ([]item.Operation, error) {
	if hasChild(n, cd.Name) {
		return nil, nil
	}
	if cd.Mandatory && !cd.AutoCreated {
		return nil, som.NewError(som.ConstraintViolation, cd.Name, nil)
	}
	if !cd.AutoCreated {
		return nil, nil
	}
	childPath := n.Path + "/" + cd.Name
	child := item.NewNode(childPath, cd.DefaultPrimaryType)
	n.AddChild(cd.Name)
	return []item.Operation{item.NewAddNode(childPath, child)}, nil
}

func hasChild(n *item.Node, name string) bool {
	for _, c := range n.Children {
		if c == name {
			return true
		}
	}
	return false
}

func (p *Processor) processPropertyDefinition(n *item.Node, pd PropertyDefinition) error {
	existing, ok := n.Properties[pd.Name]
	if !ok {
		if pd.Mandatory && !pd.AutoCreated {
			return som.NewError(som.ConstraintViolation, pd.Name, nil)
		}
		if !pd.AutoCreated {
			return nil
		}
		values, err := p.autoCreateValues(n, pd)
		if err != nil {
			return err
		}
		n.Properties[pd.Name] = &item.Property{
			Name:     pd.Name,
			Type:     pd.Type,
			Multiple: pd.Multiple,
			Values:   values,
			State:    item.New,
			Path:     pathutil.Resolve(n.Path, pd.Name),
		}
		return nil
	}

	if pd.AutoCreated && existing.State == item.Clean && p.AutoLastModified {
		switch pd.Name {
		case JCRLastModified:
			existing.Values = []any{time.Now()}
			existing.State = item.Modified
		case JCRLastModifiedBy:
			existing.Values = []any{p.UserID}
			existing.State = item.Modified
		}
	}
	return nil
}

func (p *Processor) autoCreateValues(n *item.Node, pd PropertyDefinition) ([]any, error) {
	switch pd.Name {
	case JCRUUID:
		return []any{som.NewUUID().String()}, nil
	case JCRCreatedBy, JCRLastModifiedBy:
		return []any{p.UserID}, nil
	case JCRCreated, JCRLastModified:
		return []any{time.Now()}, nil
	case JCREtag:
		return []any{etagFor(n)}, nil
	}
	if len(pd.DefaultValues) > 0 {
		return pd.DefaultValues, nil
	}
	return nil, som.NewError(som.ConstraintViolation, pd.Name, nil)
}

// etagFor derives a quoted weak ETag from n's identifier: its already
// autocreated jcr:uuid property if one exists, falling back to a fresh UUID
// if jcr:uuid has not (yet) been autocreated on this node.
func etagFor(n *item.Node) string {
	id := n.Identifier
	if id == "" {
		if uuidProp, ok := n.Properties[JCRUUID]; ok {
			if s, ok := uuidProp.Value().(string); ok {
				id = s
			}
		}
	}
	if id == "" {
		id = som.NewUUID().String()
	}
	return fmt.Sprintf("W/%q", id)
}

func (p *Processor) validateProperty(prop *item.Property) error {
	for _, v := range prop.Values {
		if err := validateValue(p.Registry, prop.Type, v); err != nil {
			return err
		}
	}
	return nil
}
